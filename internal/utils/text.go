package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ \t]*[_\-=]{3,}[ \t]*$`)
	reAnySpace   = regexp.MustCompile(`\s+`)
	reNumber     = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	reNonKey     = regexp.MustCompile(`[^a-z0-9]+`)
	reCamelBreak = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// NormalizeText collapses noisy whitespace in OCR text.
// Keeps line breaks; collapses >2 newlines into a single blank line.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(reAnySpace.ReplaceAllString(s, " "))
}

// StripDiacritics removes combining marks after NFD decomposition.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey folds a field name for fuzzy comparison:
// diacritics stripped, lowercased, separators dropped. "Name_o_fShip" -> "nameofship".
func NormalizeKey(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	return reNonKey.ReplaceAllString(s, "")
}

// SanitizeKey turns an arbitrary vendor field name into snake_case.
// "Random_Vendor_Field" -> "random_vendor_field", "lengthOA (m)" -> "length_oa_m".
func SanitizeKey(s string) string {
	s = reCamelBreak.ReplaceAllString(StripDiacritics(s), "${1}_${2}")
	s = strings.ToLower(s)
	s = reNonKey.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "field"
	}
	return s
}

// ParseNumber extracts the first number from s, dropping units.
// "45.2 m" -> 45.2, "8,5" -> 8.5, "1,234.5 kW" -> 1234.5.
func ParseNumber(s string) (float64, bool) {
	tok := strings.TrimRight(reNumber.FindString(s), ",")
	if tok == "" {
		return 0, false
	}
	switch {
	case strings.Contains(tok, ",") && strings.Contains(tok, "."):
		tok = strings.ReplaceAll(tok, ",", "")
	case strings.Count(tok, ",") == 1 && len(tok)-strings.Index(tok, ",")-1 != 3:
		tok = strings.Replace(tok, ",", ".", 1)
	default:
		tok = strings.ReplaceAll(tok, ",", "")
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether s, trimmed, is a plain number.
func IsNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
