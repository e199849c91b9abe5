package entity

import "github.com/joseph-ayodele/yacht-extract/constants"

// ExtractionRequest is one document submitted for extraction.
// Content is base64, optionally wrapped as a data:<mime>;base64, URL.
type ExtractionRequest struct {
	Content         string   `json:"content"`
	Filename        string   `json:"filename"`
	MimeType        string   `json:"mime_type,omitempty"`
	CategoryHint    string   `json:"category_hint,omitempty"`
	ExtractionHints []string `json:"extraction_hints,omitempty"`
}

// OCRRequest is what the pipeline hands to a document reader.
// Content is plain base64 without any data: URL prefix.
type OCRRequest struct {
	Content      string
	Filename     string
	MimeType     string
	DocumentType constants.DocumentType
	Hint         string
}
