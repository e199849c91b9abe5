package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/core"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
	"github.com/joseph-ayodele/yacht-extract/internal/repository"
)

// ExtractionServer is the server API of yachtextract.v1.ExtractionService.
type ExtractionServer interface {
	Extract(context.Context, *ExtractRequest) (*ExtractResponse, error)
	GetScan(context.Context, *GetScanRequest) (*entity.ScanJob, error)
	ListScans(context.Context, *ListScansRequest) (*ListScansResponse, error)
	Merge(context.Context, *MergeRequest) (*onboarding.State, error)
}

type ExtractionService struct {
	processor *core.Processor
	jobsRepo  repository.ScanJobRepository
	merger    *onboarding.Merger
	logger    *slog.Logger
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(processor *core.Processor, jobsRepo repository.ScanJobRepository, merger *onboarding.Merger, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{processor: processor, jobsRepo: jobsRepo, merger: merger, logger: logger}
}

// Extract runs the pipeline. Failures after request validation still
// return the partial Result so callers see the run log.
func (s *ExtractionService) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if req == nil {
		return nil, common.InvalidArgumentError("request is required")
	}
	out, err := s.processor.Process(ctx, req.ExtractionRequest)
	resp := &ExtractResponse{Result: out.Result}
	if out.JobID != uuid.Nil {
		resp.JobID = out.JobID.String()
	}
	if err != nil {
		if common.CodeOf(err) == common.CodeInvalidRequest || out.Result == nil {
			return nil, common.ToStatus(err)
		}
		s.logger.Warn("extract failed", "filename", req.Filename, "error", err)
	}
	return resp, nil
}

func (s *ExtractionService) GetScan(ctx context.Context, req *GetScanRequest) (*entity.ScanJob, error) {
	if s.jobsRepo == nil {
		return nil, common.UnavailableError("no job store configured")
	}
	v := common.NewValidator().Field("job_id", req.JobID, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	id := uuid.MustParse(req.JobID)
	job, err := s.jobsRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError("scan job not found")
		}
		s.logger.Error("get scan failed", "job_id", id, "error", err)
		return nil, common.InternalError("get scan failed")
	}
	return job, nil
}

func (s *ExtractionService) ListScans(ctx context.Context, req *ListScansRequest) (*ListScansResponse, error) {
	if s.jobsRepo == nil {
		return nil, common.UnavailableError("no job store configured")
	}
	jobs, err := s.jobsRepo.List(ctx, req.Limit)
	if err != nil {
		s.logger.Error("list scans failed", "error", err)
		return nil, common.InternalError("list scans failed")
	}
	return &ListScansResponse{Jobs: jobs}, nil
}

// Merge folds explicit sources, then any results, into Previous.
func (s *ExtractionService) Merge(_ context.Context, req *MergeRequest) (*onboarding.State, error) {
	state := s.merger.Merge(req.Previous, req.Sources)
	state = s.merger.MergeResults(state, req.Results...)
	return &state, nil
}
