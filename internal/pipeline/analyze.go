package pipeline

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

// Recommendation strings passed to the OCR service as a hint.
const (
	RecEnhanceContrast  = "enhance_contrast"
	RecUpscaleImage     = "upscale_image"
	RecDeskew           = "deskew"
	RecUseTextLayer     = "use_text_layer"
	RecExtractKeyValues = "extract_key_value_pairs"
	RecVesselIdentity   = "expect_vessel_identity"
	RecNormalizeDates   = "normalize_dates"
)

const (
	kib = 1 << 10
	mib = 1 << 20
)

var base64Prefixes = []struct {
	prefix string
	mime   string
}{
	{"JVBER", constants.MimePDF},
	{"iVBOR", constants.MimePNG},
	{"/9j/", constants.MimeJPEG},
	{"R0lGOD", constants.MimeGIF},
	{"SUkq", constants.MimeTIFF},
	{"TU0A", constants.MimeTIFF},
	{"UklGR", constants.MimeWEBP},
}

// ordered; first keyword found in the lowercased filename wins
var categoryKeywords = []struct {
	keyword  string
	category constants.Category
}{
	{"registration", constants.RegistrationCertificate},
	{"registry", constants.RegistrationCertificate},
	{"tonnage", constants.TonnageCertificate},
	{"insurance", constants.InsurancePolicy},
	{"survey", constants.SurveyReport},
	{"safety", constants.SafetyCertificate},
	{"crew", constants.CrewDocument},
	{"invoice", constants.Invoice},
	{"certificate", constants.RegistrationCertificate},
}

// Analyzer classifies a payload before OCR. It never fails.
type Analyzer struct{}

// Analyze infers MIME type, category, quality tier and recommendations.
func (Analyzer) Analyze(req entity.ExtractionRequest) entity.FileAnalysis {
	payload, dataMime := SplitDataURL(req.Content)
	decoded := decodeBase64(payload)

	mime := sniffBase64(payload)
	if mime == "" {
		mime = sniffMagic(decoded)
	}
	if mime == "" {
		mime = strings.ToLower(strings.TrimSpace(req.MimeType))
	}
	if mime == "" {
		mime = dataMime
	}
	if mime == "" {
		mime = constants.MimeUnknown
	}

	category := categorize(req.Filename, req.CategoryHint)
	quality := qualityTier(mime, len(decoded))

	return entity.FileAnalysis{
		MimeType:        mime,
		Category:        category,
		Quality:         quality,
		SizeBytes:       len(decoded),
		Recommendations: recommend(mime, category, quality, req.ExtractionHints),
	}
}

// SplitDataURL strips a data:<mime>;base64, prefix and returns the payload and the MIME.
func SplitDataURL(content string) (payload, mime string) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "data:") {
		return content, ""
	}
	head, body, ok := strings.Cut(content, ",")
	if !ok {
		return content, ""
	}
	head = strings.TrimPrefix(head, "data:")
	head, _, _ = strings.Cut(head, ";")
	return body, strings.ToLower(head)
}

func decodeBase64(s string) []byte {
	if s == "" {
		return nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	if b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return b
	}
	return nil
}

func sniffBase64(payload string) string {
	for _, p := range base64Prefixes {
		if strings.HasPrefix(payload, p.prefix) {
			return p.mime
		}
	}
	return ""
}

func sniffMagic(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("%PDF")):
		return constants.MimePDF
	case bytes.HasPrefix(b, []byte("\x89PNG")):
		return constants.MimePNG
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return constants.MimeJPEG
	case bytes.HasPrefix(b, []byte("GIF8")):
		return constants.MimeGIF
	case bytes.HasPrefix(b, []byte("II*\x00")), bytes.HasPrefix(b, []byte("MM\x00*")):
		return constants.MimeTIFF
	case len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && string(b[8:12]) == "WEBP":
		return constants.MimeWEBP
	}
	return ""
}

func categorize(filename, hint string) constants.Category {
	name := strings.ToLower(filename)
	for _, k := range categoryKeywords {
		if strings.Contains(name, k.keyword) {
			return k.category
		}
	}
	if c, ok := constants.Canonicalize(hint); ok {
		return c
	}
	return constants.Unknown
}

func qualityTier(mime string, size int) constants.Quality {
	if size == 0 {
		return constants.QualityMedium
	}
	switch {
	case mime == constants.MimePDF:
		switch {
		case size < 20*kib:
			return constants.QualityLow
		case size < mib:
			return constants.QualityMedium
		default:
			return constants.QualityHigh
		}
	case constants.IsImageMime(mime):
		switch {
		case size < 60*kib:
			return constants.QualityLow
		case size < 600*kib:
			return constants.QualityMedium
		default:
			return constants.QualityHigh
		}
	default:
		return constants.QualityMedium
	}
}

func isCertificate(c constants.Category) bool {
	switch c {
	case constants.RegistrationCertificate, constants.TonnageCertificate, constants.SafetyCertificate:
		return true
	}
	return false
}

func recommend(mime string, category constants.Category, quality constants.Quality, hints []string) []string {
	var out []string
	image := constants.IsImageMime(mime)
	if image && quality == constants.QualityLow {
		out = append(out, RecEnhanceContrast, RecUpscaleImage)
	}
	if image {
		out = append(out, RecDeskew)
	}
	if mime == constants.MimePDF {
		out = append(out, RecUseTextLayer)
	}
	if isCertificate(category) {
		out = append(out, RecExtractKeyValues, RecVesselIdentity)
	}
	out = append(out, RecNormalizeDates)

	seen := make(map[string]bool, len(out))
	for _, r := range out {
		seen[r] = true
	}
	for _, h := range hints {
		h = strings.TrimSpace(h)
		if h != "" && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}
