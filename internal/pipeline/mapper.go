package pipeline

import (
	"sort"
	"strconv"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

// Mapper translates recognizer keys into canonical field names.
type Mapper struct {
	table      rules.MappingTable
	exact      map[string]string
	normalized map[string]string
	groups     map[string][][]string
	composites map[string]string
}

func NewMapper(set *rules.Set) *Mapper {
	m := &Mapper{
		table:      set.Mappings,
		exact:      map[string]string{},
		normalized: map[string]string{},
		groups:     map[string][][]string{},
		composites: map[string]string{},
	}
	for _, f := range set.Mappings.Fields {
		for _, alias := range append([]string{f.Name}, f.Aliases...) {
			if _, ok := m.exact[alias]; !ok {
				m.exact[alias] = f.Name
			}
			n := utils.NormalizeKey(alias)
			if _, ok := m.normalized[n]; !ok && n != "" {
				m.normalized[n] = f.Name
			}
		}
	}
	for _, g := range set.Mappings.SynonymGroups {
		group := make([]string, 0, len(g))
		for _, s := range g {
			group = append(group, utils.NormalizeKey(s))
		}
		for _, s := range group {
			m.groups[s] = append(m.groups[s], group)
		}
	}
	for _, c := range set.Mappings.Composites {
		for _, alias := range c.Aliases {
			m.composites[utils.NormalizeKey(alias)] = c.Kind
		}
	}
	return m
}

// Lookup resolves a source key: exact alias, then normalized alias, then synonym group.
func (m *Mapper) Lookup(key string) (string, bool) {
	if c, ok := m.exact[key]; ok {
		return c, true
	}
	n := utils.NormalizeKey(key)
	if n == "" {
		return "", false
	}
	if c, ok := m.normalized[n]; ok {
		return c, true
	}
	for _, group := range m.groups[n] {
		for _, member := range group {
			if c, ok := m.normalized[member]; ok {
				return c, true
			}
		}
	}
	return "", false
}

// CompositeKind reports whether key names a packed value such as "when and where built".
func (m *Mapper) CompositeKind(key string) (string, bool) {
	k, ok := m.composites[utils.NormalizeKey(key)]
	return k, ok
}

// RuleFor returns the processing rule of a canonical field; unknown fields are strings.
func (m *Mapper) RuleFor(field string) entity.ProcessingRule {
	if f, ok := m.table.Field(field); ok {
		return entity.ProcessingRule{Type: f.Type, IsDate: f.Date}
	}
	return entity.ProcessingRule{Type: entity.FieldString}
}

// FieldValue is one canonical assignment produced from a source value.
type FieldValue struct {
	Field string
	Value string
}

// ExpandComposite splits a packed value into canonical assignments.
func ExpandComposite(kind, value string) []FieldValue {
	var out []FieldValue
	switch kind {
	case rules.CompositeBuilderYear:
		by, ok := ParseBuilderYear(value)
		if !ok {
			return nil
		}
		if by.Builder != "" {
			out = append(out, FieldValue{"builder", by.Builder})
		}
		if by.Year != 0 {
			out = append(out, FieldValue{"year", strconv.Itoa(by.Year)})
		}
		if by.Location != "" {
			out = append(out, FieldValue{"buildLocation", by.Location})
		}
	case rules.CompositeNumberYearPort:
		nyp, ok := ParseNumberYearPort(value)
		if !ok {
			return nil
		}
		if nyp.Number != "" {
			out = append(out, FieldValue{"officialNumber", nyp.Number})
		}
		if nyp.Port != "" {
			out = append(out, FieldValue{"homePort", nyp.Port})
		}
	case rules.CompositeTonnage:
		t, ok := ParseTonnage(value)
		if !ok {
			return nil
		}
		if t.HasGross {
			out = append(out, FieldValue{"grossTonnage", FormatNumber(t.Gross)})
		}
		if t.HasNet {
			out = append(out, FieldValue{"netTonnage", FormatNumber(t.Net)})
		}
	}
	return out
}

// Map runs vendor keys before derived keys, each group in sorted order.
// The first writer of a canonical field wins. Unmapped keys keep their
// value under a sanitized key and are listed in UnmappedFields.
func (m *Mapper) Map(rec entity.Recognition) entity.Mapping {
	out := entity.Mapping{
		Fields:         map[string]string{},
		Sources:        map[string]string{},
		UnmappedFields: []string{},
		Rules:          map[string]entity.ProcessingRule{},
	}
	set := func(field, value, source string, rule entity.ProcessingRule) {
		if _, taken := out.Fields[field]; taken {
			return
		}
		out.Fields[field] = value
		out.Sources[field] = source
		out.Rules[field] = rule
	}

	vendor, derived := make([]string, 0, len(rec.Fields)), []string{}
	for k := range rec.Fields {
		if rec.Derived[k] {
			derived = append(derived, k)
		} else {
			vendor = append(vendor, k)
		}
	}
	sort.Strings(vendor)
	sort.Strings(derived)

	for _, key := range append(vendor, derived...) {
		value := rec.Fields[key]
		if kind, ok := m.CompositeKind(key); ok {
			if parts := ExpandComposite(kind, value); len(parts) > 0 {
				for _, p := range parts {
					set(p.Field, p.Value, key, m.RuleFor(p.Field))
				}
				continue
			}
		}
		if field, ok := m.Lookup(key); ok {
			set(field, value, key, m.RuleFor(field))
			continue
		}
		set(utils.SanitizeKey(key), value, key, entity.ProcessingRule{Type: entity.FieldString})
		out.UnmappedFields = append(out.UnmappedFields, key)
	}
	return out
}
