package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

// Scores are kept in hundredths so thresholds compare exactly.
const (
	scoreBase    = 50
	scoreBonus   = 10
	scoreCeiling = 95

	autoPopulateMin   = 80
	assistedReviewMin = 60
)

var reWellFormed = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .,'&()/\-]*$`)

// HighValueFields identify the vessel or its registration.
var HighValueFields = map[string]bool{
	"name":               true,
	"flagState":          true,
	"callSign":           true,
	"imoNumber":          true,
	"mmsi":               true,
	"officialNumber":     true,
	"certificateNumber":  true,
	"registrationNumber": true,
	"builder":            true,
	"year":               true,
	"lengthOverall":      true,
	"grossTonnage":       true,
}

// Scorer assigns heuristic confidence and decides the population strategy.
type Scorer struct{}

// Score returns the confidence of one validated value, capped below certainty.
func (Scorer) Score(field string, v any) float64 {
	return float64(scorePoints(field, v)) / 100
}

func scorePoints(field string, v any) int {
	points := scoreBase
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s != "" {
			points += scoreBonus
		}
		if utils.IsNumeric(s) {
			points += scoreBonus
		}
		if s != "" && s == val && reWellFormed.MatchString(s) {
			points += scoreBonus
		}
		if IsNormalizedDate(s) {
			points += scoreBonus
		}
	case float64, int:
		points += 2 * scoreBonus
	}
	if HighValueFields[field] {
		points += scoreBonus
	}
	if points > scoreCeiling {
		points = scoreCeiling
	}
	return points
}

// Populate scores every validated field and builds the record.
// Canonical fields come first in record order, extras after in key order.
func (Scorer) Populate(v entity.Validation) (entity.Population, entity.YachtRecord) {
	pop := entity.Population{
		Fields:     []string{},
		Confidence: map[string]float64{},
	}
	var rec entity.YachtRecord
	total := 0

	add := func(field string, val any) {
		p := scorePoints(field, val)
		pop.Fields = append(pop.Fields, field)
		pop.Confidence[field] = float64(p) / 100
		total += p
	}

	for _, field := range entity.RecordFields() {
		val, ok := v.Validated[field]
		if !ok || !rec.Set(field, val) {
			continue
		}
		add(field, val)
	}
	var extras []string
	for k := range v.Validated {
		if !entity.IsRecordField(k) {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		s, ok := v.Validated[k].(string)
		if !ok {
			continue
		}
		if rec.Extras == nil {
			rec.Extras = map[string]string{}
		}
		rec.Extras[k] = s
		add(k, s)
	}

	n := len(pop.Fields)
	switch {
	case n > 0 && total >= autoPopulateMin*n:
		pop.Strategy = entity.StrategyAutoPopulate
	case n > 0 && total >= assistedReviewMin*n:
		pop.Strategy = entity.StrategyAssistedReview
	default:
		pop.Strategy = entity.StrategyManualReview
	}
	return pop, rec
}
