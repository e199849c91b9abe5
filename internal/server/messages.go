package server

import (
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
)

type ExtractRequest struct {
	entity.ExtractionRequest
}

type ExtractResponse struct {
	JobID  string         `json:"job_id,omitempty"`
	Result *entity.Result `json:"result"`
}

type GetScanRequest struct {
	JobID string `json:"job_id"`
}

type ListScansRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListScansResponse struct {
	Jobs []entity.ScanJob `json:"jobs"`
}

type MergeRequest struct {
	Previous onboarding.State   `json:"previous"`
	Sources  onboarding.Sources `json:"sources,omitempty"`
	Results  []*entity.Result   `json:"results,omitempty"`
}
