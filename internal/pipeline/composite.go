package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/internal/utils"
)

var (
	reBuildYear     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	reYearWithSep   = regexp.MustCompile(`\s*[,;]?\s*\b(?:19|20)\d{2}\b\s*[,;]?\s*`)
	reUpperPort     = regexp.MustCompile(`^[A-Z][A-Z .'\-]*[A-Z]$`)
	reTrailingUpper = regexp.MustCompile(`\b([A-Z][A-Z'\-]+)\s*$`)
	reOfficialNo    = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)
	reGrossTonnage  = regexp.MustCompile(`(?i)\b(?:GT|GRT|gross(?:\s+tonnage)?)\b\s*[:=]?\s*(\d+(?:[.,]\d+)?)`)
	reNetTonnage    = regexp.MustCompile(`(?i)\b(?:NT|NRT|net(?:\s+tonnage)?)\b\s*[:=]?\s*(\d+(?:[.,]\d+)?)`)
	rePairTonnage   = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*/\s*(\d+(?:[.,]\d+)?)\s*$`)
)

// BuilderYear is the split of a "when and where built" value.
type BuilderYear struct {
	Builder  string
	Location string
	Year     int
}

// ParseBuilderYear splits "2025 AZIMUT BENETTI SPA, VIAREGGIO (LUCCA), ITALY" into year 2025,
// builder "AZIMUT BENETTI SPA" and location "VIAREGGIO (LUCCA), ITALY". "BUILDER, 2019" also works.
func ParseBuilderYear(s string) (BuilderYear, bool) {
	s = utils.CollapseSpace(s)
	var out BuilderYear
	if tok := reBuildYear.FindString(s); tok != "" {
		out.Year, _ = strconv.Atoi(tok)
		s = reYearWithSep.ReplaceAllLiteralString(s, ", ")
	}
	s = strings.Trim(s, " ,;-")
	builder, location, _ := strings.Cut(s, ",")
	out.Builder = strings.TrimSpace(builder)
	out.Location = strings.TrimSpace(location)
	return out, out.Year != 0 || out.Builder != ""
}

// NumberYearPort is the split of "12345/2019/VALLETTA".
type NumberYearPort struct {
	Number string
	Year   int
	Port   string
}

// ParseNumberYearPort reads an official number, a registration year and a
// home port from a slash-separated value. The port is the trailing uppercase token.
func ParseNumberYearPort(s string) (NumberYearPort, bool) {
	parts := strings.Split(utils.CollapseSpace(s), "/")
	if len(parts) < 2 {
		return NumberYearPort{}, false
	}
	var out NumberYearPort
	if first := strings.TrimSpace(parts[0]); reOfficialNo.MatchString(first) {
		out.Number = first
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if y := reBuildYear.FindString(p); y != "" && len(p) == 4 && out.Year == 0 {
			out.Year, _ = strconv.Atoi(y)
		}
	}
	last := strings.TrimSpace(parts[len(parts)-1])
	switch {
	case reUpperPort.MatchString(last):
		out.Port = last
	default:
		if m := reTrailingUpper.FindStringSubmatch(last); m != nil {
			out.Port = m[1]
		}
	}
	return out, out.Number != "" || out.Port != ""
}

// Tonnage is the split of a combined tonnage value.
type Tonnage struct {
	Gross, Net       float64
	HasGross, HasNet bool
}

// ParseTonnage reads "GT 145 / NT 43" or "145/43".
func ParseTonnage(s string) (Tonnage, bool) {
	var out Tonnage
	if m := reGrossTonnage.FindStringSubmatch(s); m != nil {
		out.Gross, out.HasGross = utils.ParseNumber(m[1])
	}
	if m := reNetTonnage.FindStringSubmatch(s); m != nil {
		out.Net, out.HasNet = utils.ParseNumber(m[1])
	}
	if !out.HasGross && !out.HasNet {
		if m := rePairTonnage.FindStringSubmatch(s); m != nil {
			out.Gross, out.HasGross = utils.ParseNumber(m[1])
			out.Net, out.HasNet = utils.ParseNumber(m[2])
		}
	}
	return out, out.HasGross || out.HasNet
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
