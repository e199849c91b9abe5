package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

// Recognizer enhances the vendor key-value map with free-text patterns,
// date normalization and vessel name reconstruction.
type Recognizer struct {
	patterns rules.PatternTable
	names    *nameResolver
}

func NewRecognizer(set *rules.Set) *Recognizer {
	return &Recognizer{
		patterns: set.Patterns,
		names:    newNameResolver(set.Patterns),
	}
}

// Recognize never fails; unmatched inputs are copied through trimmed.
func (r *Recognizer) Recognize(raw entity.RawOCR) entity.Recognition {
	out := entity.Recognition{
		Fields:  make(map[string]string, len(raw.KeyValues)),
		Derived: map[string]bool{},
	}

	for _, k := range sortedKeys(raw.KeyValues) {
		key := strings.TrimSpace(k)
		v := utils.CollapseSpace(raw.KeyValues[k])
		if key == "" || v == "" {
			continue
		}
		if d := NormalizeDate(v); d != v && IsNormalizedDate(d) {
			v = d
			out.AppliedPatterns = append(out.AppliedPatterns, "date.normalize:"+key)
		}
		if _, dup := out.Fields[key]; !dup {
			out.Fields[key] = v
		}
	}

	text := utils.NormalizeText(raw.Text)
	if text != "" {
		for _, field := range r.patterns.Fields() {
			if field == NameField {
				continue
			}
			if _, exists := out.Fields[field]; exists {
				continue
			}
			for _, p := range r.patterns.ForField(field) {
				v, ok := p.Find(text)
				if !ok {
					continue
				}
				v = utils.CollapseSpace(v)
				if v == "" {
					continue
				}
				out.Fields[field] = NormalizeDate(v)
				out.Derived[field] = true
				out.AppliedPatterns = append(out.AppliedPatterns, p.ID)
				break
			}
		}
	}

	cands, best, consumed := r.names.resolve(out.Fields, text)
	out.NameCandidates = cands
	if best != nil {
		for _, k := range consumed {
			delete(out.Fields, k)
			delete(out.Derived, k)
		}
		out.Fields[NameField] = best.Value
		delete(out.Derived, NameField)
		out.AppliedPatterns = append(out.AppliedPatterns, best.Strategy)
	}
	return out
}
