package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

var reYearToken = regexp.MustCompile(`\b\d{4}\b`)

// Validator applies per-field rules. Failures are recorded, never raised.
type Validator struct {
	table rules.ValidationTable
	now   func() time.Time
}

func NewValidator(set *rules.Set, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{table: set.Validation, now: now}
}

func (v *Validator) Validate(m entity.Mapping) entity.Validation {
	out := entity.Validation{
		Validated: map[string]any{},
		Rejected:  map[string]string{},
	}
	for _, field := range sortedKeys(m.Fields) {
		raw := strings.TrimSpace(m.Fields[field])
		if !entity.IsRecordField(field) {
			if raw == "" {
				out.Rejected[field] = "value is empty"
				continue
			}
			out.Validated[field] = raw
			continue
		}
		val, reason := v.validateField(field, raw, m.Rules[field])
		if reason != "" {
			out.Rejected[field] = reason
			continue
		}
		out.Validated[field] = val
	}
	for _, r := range v.table.Fields {
		if _, ok := out.Validated[r.Name]; r.Required && !ok {
			out.Missing = append(out.Missing, r.Name)
		}
	}
	sort.Strings(out.Missing)
	return out
}

func (v *Validator) validateField(field, raw string, rule entity.ProcessingRule) (any, string) {
	if raw == "" {
		return nil, "value is empty"
	}
	fr, _ := v.table.Rule(field)
	switch {
	case field == "name":
		return validateName(raw, fr)
	case field == "year":
		return v.validateYear(raw, fr)
	case rule.IsDate || fr.Date:
		d := NormalizeDate(raw)
		if !IsNormalizedDate(d) {
			return nil, fmt.Sprintf("%q is not a recognised date", raw)
		}
		return d, ""
	case rule.Type == entity.FieldNumber, rule.Type == entity.FieldInteger:
		return validateNumber(raw, fr, rule.Type == entity.FieldInteger)
	default:
		return validateString(raw, fr)
	}
}

// validateName accepts a single uppercase letter; anything else needs the generic rule.
func validateName(raw string, fr rules.FieldRule) (any, string) {
	if reSingleUpper.MatchString(raw) {
		return raw, ""
	}
	return validateString(raw, fr)
}

// validateYear prefers the first 4-digit token on the recent-years allow-list
// (current year -30 .. +1), then the first token in [min, current+2].
func (v *Validator) validateYear(raw string, fr rules.FieldRule) (any, string) {
	current := v.now().Year()
	lowest := 1900
	if fr.Min != nil {
		lowest = int(*fr.Min)
	}
	var years []int
	for _, tok := range reYearToken.FindAllString(raw, -1) {
		y, _ := strconv.Atoi(tok)
		years = append(years, y)
	}
	for _, y := range years {
		if y >= current-30 && y <= current+1 {
			return y, ""
		}
	}
	for _, y := range years {
		if y >= lowest && y <= current+2 {
			return y, ""
		}
	}
	return nil, fmt.Sprintf("no plausible build year in %q", raw)
}

func validateNumber(raw string, fr rules.FieldRule, integer bool) (any, string) {
	f, ok := utils.ParseNumber(raw)
	if !ok {
		return nil, fmt.Sprintf("%q is not a number", raw)
	}
	if fr.Min != nil && f < *fr.Min {
		return nil, fmt.Sprintf("%s is below the minimum %s", FormatNumber(f), FormatNumber(*fr.Min))
	}
	if fr.Max != nil && f > *fr.Max {
		return nil, fmt.Sprintf("%s is above the maximum %s", FormatNumber(f), FormatNumber(*fr.Max))
	}
	if integer {
		if f != math.Trunc(f) {
			return nil, fmt.Sprintf("%s is not a whole number", FormatNumber(f))
		}
		return int(f), ""
	}
	return f, ""
}

func validateString(raw string, fr rules.FieldRule) (any, string) {
	n := utf8.RuneCountInString(raw)
	if fr.MinLength > 0 && n < fr.MinLength {
		return nil, fmt.Sprintf("must be at least %d characters", fr.MinLength)
	}
	if fr.MaxLength > 0 && n > fr.MaxLength {
		return nil, fmt.Sprintf("must be at most %d characters", fr.MaxLength)
	}
	if !fr.MatchPattern(raw) {
		return nil, fmt.Sprintf("%q has an invalid format", raw)
	}
	if len(fr.Enum) > 0 {
		for _, e := range fr.Enum {
			if strings.EqualFold(e, raw) {
				return e, ""
			}
		}
		return nil, fmt.Sprintf("%q is not one of %s", raw, strings.Join(fr.Enum, ", "))
	}
	return raw, ""
}
