package entity

import (
	"time"

	"github.com/joseph-ayodele/yacht-extract/constants"
)

// FileAnalysis is the output of the analyze phase.
type FileAnalysis struct {
	MimeType        string             `json:"mime_type"`
	Category        constants.Category `json:"category"`
	Quality         constants.Quality  `json:"quality"`
	SizeBytes       int                `json:"size_bytes"`
	Recommendations []string           `json:"recommendations"`
}

// OCR transports.
const (
	TransportDirect        = "direct"
	TransportClientLibrary = "client_library"
)

// RawOCR is the vendor output, field names kept verbatim.
type RawOCR struct {
	KeyValues  map[string]string `json:"key_values"`
	Text       string            `json:"text,omitempty"`
	Confidence float64           `json:"confidence"`
	Transport  string            `json:"transport"`
}

// NameCandidate is one reconstruction of the vessel name.
type NameCandidate struct {
	Strategy   string   `json:"strategy"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources,omitempty"`
}

// Recognition is the enhanced key-value map.
// Derived marks keys found in free text rather than in the vendor key-value list.
type Recognition struct {
	Fields          map[string]string `json:"fields"`
	Derived         map[string]bool   `json:"derived,omitempty"`
	AppliedPatterns []string          `json:"applied_patterns"`
	NameCandidates  []NameCandidate   `json:"name_candidates,omitempty"`
}

// FieldType is the coercion applied to a canonical field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
)

// ProcessingRule carries mapper decisions to validation.
type ProcessingRule struct {
	Type   FieldType `json:"type"`
	IsDate bool      `json:"is_date,omitempty"`
}

// Mapping is the canonical field map.
type Mapping struct {
	Fields         map[string]string         `json:"fields"`
	Sources        map[string]string         `json:"sources"`
	UnmappedFields []string                  `json:"unmapped_fields"`
	Rules          map[string]ProcessingRule `json:"rules"`
}

// Validation splits mapped fields into accepted and rejected.
// Validated values are string, float64 or int.
type Validation struct {
	Validated map[string]any    `json:"validated"`
	Rejected  map[string]string `json:"rejected"`
	Missing   []string          `json:"missing,omitempty"`
}

// Population strategies.
const (
	StrategyAutoPopulate   = "auto_populate"
	StrategyAssistedReview = "assisted_review"
	StrategyManualReview   = "manual_review"
)

// Population is the final scored field list.
type Population struct {
	Fields     []string           `json:"fields"`
	Confidence map[string]float64 `json:"confidence"`
	Strategy   string             `json:"strategy"`
}

// LogEntry is one line of the run log returned with a Result.
type LogEntry struct {
	At      time.Time `json:"at"`
	Phase   string    `json:"phase"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}
