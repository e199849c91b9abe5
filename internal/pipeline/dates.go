package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

// DateLayout is the single output format for every recognized date.
const DateLayout = "02-01-2006"

var (
	reNumericDMY = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})$`)
	reISODate    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reDayMonthYr = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]+)\.?,?\s+(\d{4})$`)
	reMonthYear  = regexp.MustCompile(`(?i)^([a-z]+)\.?,?\s+(\d{4})$`)
	reCanonDate  = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "sept": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func parseMonth(s string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(s)]
	return m, ok
}

// NormalizeDate rewrites "March 2024", "3rd March 2024", "03/03/2024",
// "03-03-2024", "03.03.2024" and "2024-03-03" as DD-MM-YYYY.
// Anything else, including impossible calendar dates, is returned unchanged.
// NormalizeDate(NormalizeDate(s)) == NormalizeDate(s).
func NormalizeDate(s string) string {
	v := utils.CollapseSpace(s)
	if v == "" {
		return s
	}
	if m := reNumericDMY.FindStringSubmatch(v); m != nil {
		return formatDate(s, atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := reISODate.FindStringSubmatch(v); m != nil {
		return formatDate(s, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reDayMonthYr.FindStringSubmatch(v); m != nil {
		if month, ok := parseMonth(m[2]); ok {
			return formatDate(s, atoi(m[3]), int(month), atoi(m[1]))
		}
		return s
	}
	if m := reMonthYear.FindStringSubmatch(v); m != nil {
		if month, ok := parseMonth(m[1]); ok {
			return formatDate(s, atoi(m[2]), int(month), 1)
		}
	}
	return s
}

// IsNormalizedDate reports whether s is a real calendar date in DD-MM-YYYY.
func IsNormalizedDate(s string) bool {
	if !reCanonDate.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func formatDate(orig string, year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return orig
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return orig
	}
	return fmt.Sprintf("%02d-%02d-%04d", day, month, year)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
