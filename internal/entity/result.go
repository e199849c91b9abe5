package entity

// Result is the outcome of one extraction run. On failure Success is false,
// Error is set and the phase results reached so far are kept.
type Result struct {
	RequestID string `json:"request_id"`
	Filename  string `json:"filename"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	Analysis    *FileAnalysis `json:"analysis,omitempty"`
	OCR         *RawOCR       `json:"ocr,omitempty"`
	Recognition *Recognition  `json:"recognition,omitempty"`
	Mapping     *Mapping      `json:"mapping,omitempty"`
	Validation  *Validation   `json:"validation,omitempty"`
	Population  *Population   `json:"population,omitempty"`
	Record      *YachtRecord  `json:"record,omitempty"`

	FieldsExtracted  int     `json:"fields_extracted"`
	FieldsMapped     int     `json:"fields_mapped"`
	FieldsValidated  int     `json:"fields_validated"`
	FieldsPopulated  int     `json:"fields_populated"`
	Accuracy         float64 `json:"accuracy"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`

	Log []LogEntry `json:"log"`
}
