// Package onboarding folds extraction output into the onboarding record.
// Sources are applied in a fixed priority order and a field written by a
// higher-priority source is never overwritten.
package onboarding

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/pipeline"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

type Source string

const (
	SourceExisting        Source = "existing"
	SourceKeyInformation  Source = "key_information"
	SourceBasicInfo       Source = "basic_info"
	SourceExtractedFields Source = "extracted_fields"
	SourceFormFields      Source = "form_fields"
)

// Priority lists sources from strongest to weakest.
var Priority = []Source{
	SourceExisting,
	SourceKeyInformation,
	SourceBasicInfo,
	SourceExtractedFields,
	SourceFormFields,
}

// minPlausibleGross is the smallest gross tonnage accepted without a
// longer-than-tonnage length to back it up.
const minPlausibleGross = 30

// sourceAliases are the structured-block key names that the mapping
// tables do not carry.
var sourceAliases = map[Source]map[string]string{
	SourceBasicInfo: {
		"vesselname": "name",
		"flag":       "flagState",
		"loa":        "lengthOverall",
		"builtby":    "builder",
		"yearbuilt":  "year",
		"port":       "homePort",
	},
	SourceExtractedFields: {
		"vessel":       "name",
		"registry":     "homePort",
		"tonnagegross": "grossTonnage",
		"tonnagenet":   "netTonnage",
	},
}

// Sources holds the raw blocks to merge, keyed by source. Values are
// strings or JSON scalars.
type Sources map[Source]map[string]any

// Coverage records which source and key produced a merged field.
type Coverage struct {
	Field  string `json:"field"`
	Source Source `json:"source"`
	Key    string `json:"key"`
}

// State is the merged onboarding record. Treat it as immutable; Merge
// always returns a new value.
type State struct {
	Fields   map[string]any `json:"fields"`
	Coverage []Coverage     `json:"coverage"`
	Merged   bool           `json:"merged"`
}

type candidate struct {
	field  string
	value  any
	source Source
	key    string
}

// Merger resolves source keys and coerces values with the pipeline's tables.
type Merger struct {
	mapper    *pipeline.Mapper
	validator *pipeline.Validator
	logger    *slog.Logger
}

func NewMerger(set *rules.Set, logger *slog.Logger, now func() time.Time) *Merger {
	if set == nil {
		set = rules.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		mapper:    pipeline.NewMapper(set),
		validator: pipeline.NewValidator(set, now),
		logger:    logger,
	}
}

// Merge folds src into prev. prev.Fields count as the existing source.
func (m *Merger) Merge(prev State, src Sources) State {
	next := State{
		Fields:   make(map[string]any, len(prev.Fields)),
		Coverage: make([]Coverage, 0, len(prev.Coverage)),
		Merged:   true,
	}
	covered := map[string]bool{}
	for _, c := range prev.Coverage {
		if _, ok := prev.Fields[c.Field]; ok && !covered[c.Field] {
			next.Coverage = append(next.Coverage, c)
			covered[c.Field] = true
		}
	}
	for _, f := range sortedKeys(prev.Fields) {
		next.Fields[f] = prev.Fields[f]
		if !covered[f] {
			next.Coverage = append(next.Coverage, Coverage{Field: f, Source: SourceExisting, Key: f})
			covered[f] = true
		}
	}

	var cands []candidate
	for _, s := range Priority {
		cands = append(cands, m.expand(s, src[s])...)
	}
	length, hasLength := lengthHint(next.Fields, cands)

	for _, c := range cands {
		if _, taken := next.Fields[c.field]; taken {
			continue
		}
		if c.field == "grossTonnage" && implausibleGross(c.value, length, hasLength) {
			m.logger.Debug("onboarding.merge.gross_tonnage_skipped",
				"source", c.source, "key", c.key, "value", c.value)
			continue
		}
		next.Fields[c.field] = c.value
		next.Coverage = append(next.Coverage, Coverage{Field: c.field, Source: c.source, Key: c.key})
	}
	return next
}

// expand turns one source block into validated candidates in key order.
func (m *Merger) expand(s Source, block map[string]any) []candidate {
	var out []candidate
	for _, key := range sortedKeys(block) {
		raw, ok := scalar(block[key])
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if kind, ok := m.mapper.CompositeKind(key); ok {
			if parts := pipeline.ExpandComposite(kind, raw); len(parts) > 0 {
				for _, fv := range parts {
					if v, ok := m.coerce(fv.Field, fv.Value); ok {
						out = append(out, candidate{field: fv.Field, value: v, source: s, key: key})
					}
				}
				continue
			}
		}
		field, ok := m.resolve(s, key)
		if !ok {
			continue
		}
		if v, ok := m.coerce(field, raw); ok {
			out = append(out, candidate{field: field, value: v, source: s, key: key})
		}
	}
	return out
}

func (m *Merger) resolve(s Source, key string) (string, bool) {
	if entity.IsRecordField(key) {
		return key, true
	}
	if f, ok := sourceAliases[s][utils.NormalizeKey(key)]; ok {
		return f, true
	}
	f, ok := m.mapper.Lookup(key)
	return f, ok && entity.IsRecordField(f)
}

// coerce runs the field's validation rule and returns the typed value.
func (m *Merger) coerce(field, raw string) (any, bool) {
	res := m.validator.Validate(entity.Mapping{
		Fields: map[string]string{field: raw},
		Rules:  map[string]entity.ProcessingRule{field: m.mapper.RuleFor(field)},
	})
	v, ok := res.Validated[field]
	return v, ok
}

// lengthHint is the first length known across the state and all sources.
func lengthHint(fields map[string]any, cands []candidate) (float64, bool) {
	if f, ok := toFloat(fields["lengthOverall"]); ok {
		return f, true
	}
	for _, c := range cands {
		if c.field == "lengthOverall" {
			if f, ok := toFloat(c.value); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func implausibleGross(v any, length float64, hasLength bool) bool {
	gross, ok := toFloat(v)
	if !ok || gross >= minPlausibleGross {
		return false
	}
	return !hasLength || gross <= length
}

// Record converts the merged fields into a YachtRecord.
func (s State) Record() entity.YachtRecord {
	var rec entity.YachtRecord
	for f, v := range s.Fields {
		rec.Set(f, v)
	}
	return rec
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return "", false
	case interface{ String() string }:
		return t.String(), true
	default:
		return "", false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
