// Package rules holds the versioned lookup tables that drive recognition,
// mapping and validation. The default set is embedded; an override directory
// with the same three files can be loaded instead.
package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

//go:embed tables/*.yaml
var embedded embed.FS

const (
	PatternsFile   = "patterns.yaml"
	MappingsFile   = "mappings.yaml"
	ValidationFile = "validation.yaml"
)

// Composite kinds.
const (
	CompositeBuilderYear    = "builder_year"
	CompositeNumberYearPort = "number_year_port"
	CompositeTonnage        = "tonnage"
)

// Pattern is one regex alternative for a semantic field.
type Pattern struct {
	ID    string `yaml:"id"`
	Field string `yaml:"field"`
	Regex string `yaml:"regex"`
	Group int    `yaml:"group"`

	re *regexp.Regexp
}

// Find returns the captured group of the first match in text.
func (p Pattern) Find(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil || p.Group >= len(m) {
		return "", false
	}
	return m[p.Group], m[p.Group] != ""
}

type PatternTable struct {
	Version  string    `yaml:"version"`
	NameKeys []string  `yaml:"name_keys"`
	Brands   []string  `yaml:"brands"`
	Patterns []Pattern `yaml:"patterns"`
}

// Fields returns the semantic fields in table order.
func (t PatternTable) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range t.Patterns {
		if !seen[p.Field] {
			seen[p.Field] = true
			out = append(out, p.Field)
		}
	}
	return out
}

// ForField returns the ordered alternatives for field.
func (t PatternTable) ForField(field string) []Pattern {
	var out []Pattern
	for _, p := range t.Patterns {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}

// FieldMapping describes one canonical field and the source names that map to it.
type FieldMapping struct {
	Name     string           `yaml:"name"`
	Category string           `yaml:"category"`
	Type     entity.FieldType `yaml:"type"`
	Date     bool             `yaml:"date"`
	Aliases  []string         `yaml:"aliases"`
}

// Composite lists source names holding several canonical fields in one value.
type Composite struct {
	Kind    string   `yaml:"kind"`
	Aliases []string `yaml:"aliases"`
}

type MappingTable struct {
	Version       string         `yaml:"version"`
	SynonymGroups [][]string     `yaml:"synonym_groups"`
	Fields        []FieldMapping `yaml:"fields"`
	Composites    []Composite    `yaml:"composites"`
}

// Field returns the mapping for a canonical name.
func (t MappingTable) Field(name string) (FieldMapping, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldMapping{}, false
}

// FieldRule is the validation rule for one canonical field.
type FieldRule struct {
	Name      string   `yaml:"name"`
	Required  bool     `yaml:"required"`
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
	Pattern   string   `yaml:"pattern"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Enum      []string `yaml:"enum"`
	Date      bool     `yaml:"date"`

	re *regexp.Regexp
}

// MatchPattern reports whether s satisfies the rule's regex; rules without one match everything.
func (r FieldRule) MatchPattern(s string) bool {
	return r.re == nil || r.re.MatchString(s)
}

type ValidationTable struct {
	Version string      `yaml:"version"`
	Fields  []FieldRule `yaml:"fields"`
}

// Rule returns the rule for a canonical name.
func (t ValidationTable) Rule(name string) (FieldRule, bool) {
	for _, r := range t.Fields {
		if r.Name == name {
			return r, true
		}
	}
	return FieldRule{}, false
}

// Set is a complete, compiled rule set.
type Set struct {
	Patterns   PatternTable
	Mappings   MappingTable
	Validation ValidationTable
}

// Versions returns the version string of every table, for logging.
func (s *Set) Versions() map[string]string {
	return map[string]string{
		"patterns":   s.Patterns.Version,
		"mappings":   s.Mappings.Version,
		"validation": s.Validation.Version,
	}
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the embedded rule set. It panics if the embedded tables are invalid.
func Default() *Set {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "tables")
		if err != nil {
			defaultErr = err
			return
		}
		defaultSet, defaultErr = Load(sub)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("rules: embedded tables: %v", defaultErr))
	}
	return defaultSet
}

// Load reads, schema-checks and compiles the three tables from fsys.
func Load(fsys fs.FS) (*Set, error) {
	s := &Set{}
	if err := decode(fsys, PatternsFile, patternsSchema(), &s.Patterns); err != nil {
		return nil, err
	}
	if err := decode(fsys, MappingsFile, mappingsSchema(), &s.Mappings); err != nil {
		return nil, err
	}
	if err := decode(fsys, ValidationFile, validationSchema(), &s.Validation); err != nil {
		return nil, err
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(fsys fs.FS, name string, schema map[string]any, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := ValidateAgainstSchema(schema, doc); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Set) compile() error {
	seenIDs := map[string]bool{}
	for i := range s.Patterns.Patterns {
		p := &s.Patterns.Patterns[i]
		if seenIDs[p.ID] {
			return fmt.Errorf("%s: duplicate pattern id %q", PatternsFile, p.ID)
		}
		seenIDs[p.ID] = true
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return fmt.Errorf("%s: pattern %q: %w", PatternsFile, p.ID, err)
		}
		if p.Group > re.NumSubexp() {
			return fmt.Errorf("%s: pattern %q: group %d out of range", PatternsFile, p.ID, p.Group)
		}
		p.re = re
	}

	seenFields := map[string]bool{}
	for _, f := range s.Mappings.Fields {
		if !entity.IsRecordField(f.Name) {
			return fmt.Errorf("%s: unknown canonical field %q", MappingsFile, f.Name)
		}
		if seenFields[f.Name] {
			return fmt.Errorf("%s: duplicate field %q", MappingsFile, f.Name)
		}
		seenFields[f.Name] = true
	}

	for i := range s.Validation.Fields {
		r := &s.Validation.Fields[i]
		if !entity.IsRecordField(r.Name) {
			return fmt.Errorf("%s: unknown canonical field %q", ValidationFile, r.Name)
		}
		if r.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return fmt.Errorf("%s: rule %q: %w", ValidationFile, r.Name, err)
		}
		r.re = re
	}
	return nil
}
