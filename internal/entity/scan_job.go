package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/constants"
)

// ScanJob is the persisted audit row of one extraction run.
type ScanJob struct {
	ID              uuid.UUID           `json:"id"`
	Filename        string              `json:"filename"`
	Category        string              `json:"category"`
	Status          constants.JobStatus `json:"status"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage    *string             `json:"error_message,omitempty"`
	FieldsPopulated int                 `json:"fields_populated"`
	Accuracy        float64             `json:"accuracy"`
	ResultJSON      json.RawMessage     `json:"result_json,omitempty"`
}
