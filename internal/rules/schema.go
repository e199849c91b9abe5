package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateAgainstSchema validates a decoded JSON value against schemaMap.
// YAML documents are accepted as long as they decode to string-keyed maps.
func ValidateAgainstSchema(schemaMap map[string]any, v any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	// round-trip so numbers and maps have the shapes the validator expects
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string", "minLength": 1}}
}

func patternsSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"version", "patterns"},
		"properties": map[string]any{
			"version":   map[string]any{"type": "string", "minLength": 1},
			"name_keys": stringList(),
			"brands":    stringList(),
			"patterns": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"id", "field", "regex"},
					"properties": map[string]any{
						"id":    map[string]any{"type": "string", "minLength": 1},
						"field": map[string]any{"type": "string", "pattern": `^[a-z][a-z0-9_]*$`},
						"regex": map[string]any{"type": "string", "minLength": 1},
						"group": map[string]any{"type": "integer", "minimum": 0},
					},
				},
			},
		},
	}
}

func mappingsSchema() map[string]any {
	categories := []string{"identity", "registration", "specifications", "owner", "operations", "dates"}
	return map[string]any{
		"type":     "object",
		"required": []string{"version", "fields"},
		"properties": map[string]any{
			"version": map[string]any{"type": "string", "minLength": 1},
			"synonym_groups": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "array", "minItems": 2, "items": map[string]any{"type": "string"}},
			},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"name", "category", "type"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string", "minLength": 1},
						"category": map[string]any{"type": "string", "enum": categories},
						"type":     map[string]any{"type": "string", "enum": []string{"string", "number", "integer"}},
						"date":     map[string]any{"type": "boolean"},
						"aliases":  stringList(),
					},
				},
			},
			"composites": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"kind", "aliases"},
					"properties": map[string]any{
						"kind":    map[string]any{"type": "string", "enum": []string{CompositeBuilderYear, CompositeNumberYearPort, CompositeTonnage}},
						"aliases": stringList(),
					},
				},
			},
		},
	}
}

func validationSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"version", "fields"},
		"properties": map[string]any{
			"version": map[string]any{"type": "string", "minLength": 1},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"name"},
					"properties": map[string]any{
						"name":       map[string]any{"type": "string", "minLength": 1},
						"required":   map[string]any{"type": "boolean"},
						"min_length": map[string]any{"type": "integer", "minimum": 0},
						"max_length": map[string]any{"type": "integer", "minimum": 1},
						"pattern":    map[string]any{"type": "string"},
						"min":        map[string]any{"type": "number"},
						"max":        map[string]any{"type": "number"},
						"enum":       stringList(),
						"date":       map[string]any{"type": "boolean"},
					},
				},
			},
		},
	}
}
