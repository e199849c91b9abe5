package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

// Name strategies in tie-break order.
const (
	NameDirect         = "name.direct"
	NameBrandModel     = "name.brand_model"
	NameShortWithBrand = "name.short_with_brand"
	NameLabelledText   = "name.labelled_text"
	NameSplitFields    = "name.split_fields"
)

// NameField is the recognizer key holding the reconstructed vessel name.
const NameField = "yacht_name"

var (
	reSingleUpper = regexp.MustCompile(`^[A-Z]$`)
	reAlphaName   = regexp.MustCompile(`^[A-Za-z][A-Za-z .'\-]{2,}$`)
	reSplitName   = regexp.MustCompile(`(?i)^name[\s_\-]*(?:part|line)[\s_\-]*(\d+)$`)
	modelToken    = `([A-Z]{0,3}\d{2,3}[A-Z]{0,3})`
)

type brandMatcher struct {
	brand   string
	present *regexp.Regexp
	model   *regexp.Regexp
}

func compileBrands(brands []string) []brandMatcher {
	out := make([]brandMatcher, 0, len(brands))
	for _, b := range brands {
		words := strings.Fields(strings.ToUpper(b))
		if len(words) == 0 {
			continue
		}
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		body := strings.Join(words, `\s+`)
		out = append(out, brandMatcher{
			brand:   strings.Join(strings.Fields(strings.ToUpper(b)), " "),
			present: regexp.MustCompile(`(?i)\b` + body + `\b`),
			model:   regexp.MustCompile(`(?i)\b` + body + `\s+` + modelToken + `\b`),
		})
	}
	return out
}

type nameResolver struct {
	keys     map[string]int
	brands   []brandMatcher
	patterns []rules.Pattern
}

func newNameResolver(t rules.PatternTable) *nameResolver {
	keys := make(map[string]int, len(t.NameKeys))
	for i, k := range t.NameKeys {
		keys[k] = i
	}
	return &nameResolver{
		keys:     keys,
		brands:   compileBrands(t.Brands),
		patterns: t.ForField(NameField),
	}
}

// resolve collects candidates from every strategy. It returns the candidates,
// the winner (if any) and the vendor keys that carried name fragments.
func (n *nameResolver) resolve(fields map[string]string, text string) ([]entity.NameCandidate, *entity.NameCandidate, []string) {
	var (
		cands    []entity.NameCandidate
		consumed []string
	)

	directKey, direct := n.directName(fields)
	for k := range fields {
		if _, ok := n.keys[utils.NormalizeKey(k)]; ok {
			consumed = append(consumed, k)
		}
	}
	if directKey != "" {
		cands = append(cands, entity.NameCandidate{
			Strategy:   NameDirect,
			Value:      direct,
			Confidence: directConfidence(direct),
			Sources:    []string{directKey},
		})
	}

	haystacks := n.haystacks(fields, text, directKey)
	if c, ok := n.brandModel(haystacks); ok {
		cands = append(cands, c)
	}
	if directKey != "" && looksLikeModel(direct) {
		if brand, src, ok := n.brandPresent(haystacks); ok {
			cands = append(cands, entity.NameCandidate{
				Strategy:   NameShortWithBrand,
				Value:      brand + " " + strings.ToUpper(direct),
				Confidence: 0.92,
				Sources:    []string{directKey, src},
			})
		}
	}
	if c, ok := n.labelled(text); ok {
		cands = append(cands, c)
	}
	if c, keys, ok := splitName(fields); ok {
		cands = append(cands, c)
		consumed = append(consumed, keys...)
	}

	sort.Strings(consumed)
	var best *entity.NameCandidate
	for i := range cands {
		if best == nil || cands[i].Confidence > best.Confidence {
			best = &cands[i]
		}
	}
	return cands, best, consumed
}

func (n *nameResolver) directName(fields map[string]string) (string, string) {
	bestKey, bestRank := "", len(n.keys)
	keys := sortedKeys(fields)
	for _, k := range keys {
		rank, ok := n.keys[utils.NormalizeKey(k)]
		if ok && rank < bestRank {
			bestKey, bestRank = k, rank
		}
	}
	if bestKey == "" {
		return "", ""
	}
	return bestKey, fields[bestKey]
}

func directConfidence(v string) float64 {
	if reSingleUpper.MatchString(v) || reAlphaName.MatchString(v) {
		return 0.90
	}
	return 0.60
}

func looksLikeModel(v string) bool {
	if len(v) > 5 {
		return false
	}
	for _, r := range v {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

type haystack struct {
	source string
	text   string
}

// haystacks lists the free text then every value except the direct name,
// in key order.
func (n *nameResolver) haystacks(fields map[string]string, text, skip string) []haystack {
	out := make([]haystack, 0, len(fields)+1)
	if text != "" {
		out = append(out, haystack{source: "text", text: text})
	}
	for _, k := range sortedKeys(fields) {
		if k != skip {
			out = append(out, haystack{source: k, text: fields[k]})
		}
	}
	return out
}

func (n *nameResolver) brandModel(hs []haystack) (entity.NameCandidate, bool) {
	for _, h := range hs {
		for _, b := range n.brands {
			if m := b.model.FindStringSubmatch(h.text); m != nil {
				return entity.NameCandidate{
					Strategy:   NameBrandModel,
					Value:      b.brand + " " + strings.ToUpper(m[1]),
					Confidence: 0.85,
					Sources:    []string{h.source},
				}, true
			}
		}
	}
	return entity.NameCandidate{}, false
}

func (n *nameResolver) brandPresent(hs []haystack) (string, string, bool) {
	for _, h := range hs {
		for _, b := range n.brands {
			if b.present.MatchString(h.text) {
				return b.brand, h.source, true
			}
		}
	}
	return "", "", false
}

func (n *nameResolver) labelled(text string) (entity.NameCandidate, bool) {
	if text == "" {
		return entity.NameCandidate{}, false
	}
	for _, p := range n.patterns {
		v, ok := p.Find(text)
		if !ok {
			continue
		}
		v = utils.CollapseSpace(v)
		if v == "" {
			continue
		}
		conf := 0.80
		if strings.Contains(v, " ") {
			conf = 0.85
		}
		return entity.NameCandidate{
			Strategy:   NameLabelledText,
			Value:      v,
			Confidence: conf,
			Sources:    []string{p.ID},
		}, true
	}
	return entity.NameCandidate{}, false
}

func splitName(fields map[string]string) (entity.NameCandidate, []string, bool) {
	type part struct {
		idx int
		key string
	}
	var parts []part
	for k := range fields {
		if m := reSplitName.FindStringSubmatch(strings.TrimSpace(k)); m != nil {
			idx, _ := strconv.Atoi(m[1])
			parts = append(parts, part{idx: idx, key: k})
		}
	}
	if len(parts) == 0 {
		return entity.NameCandidate{}, nil, false
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].idx != parts[j].idx {
			return parts[i].idx < parts[j].idx
		}
		return parts[i].key < parts[j].key
	})
	values := make([]string, 0, len(parts))
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, fields[p.key])
		keys = append(keys, p.key)
	}
	return entity.NameCandidate{
		Strategy:   NameSplitFields,
		Value:      utils.CollapseSpace(strings.Join(values, " ")),
		Confidence: 0.75,
		Sources:    keys,
	}, keys, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
