package constants

import "strings"

// MIME types the file analyzer can sniff.
const (
	MimePDF     = "application/pdf"
	MimePNG     = "image/png"
	MimeJPEG    = "image/jpeg"
	MimeGIF     = "image/gif"
	MimeTIFF    = "image/tiff"
	MimeWEBP    = "image/webp"
	MimeUnknown = "application/octet-stream"
)

type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// AllowedExtensions holds the file extensions picked up by batch and inbox ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeForExt returns the declared MIME type for a supported extension, "" otherwise.
func MimeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return MimePDF
	case "jpg", "jpeg":
		return MimeJPEG
	case "png":
		return MimePNG
	case "tif", "tiff":
		return MimeTIFF
	case "webp":
		return MimeWEBP
	default:
		return ""
	}
}

// IsImageMime reports whether the MIME type denotes a raster image.
func IsImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
