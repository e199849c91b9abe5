package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/pipeline"
	"github.com/joseph-ayodele/yacht-extract/internal/repository"
)

// maxFileBytes bounds what is read from disk for one scan.
const maxFileBytes = 40 << 20

// Processor runs the extraction procedure for files and requests and,
// when a job store is configured, records each run as a scan job.
type Processor struct {
	logger    *slog.Logger
	procedure *pipeline.Procedure
	jobsRepo  repository.ScanJobRepository
}

func NewProcessor(logger *slog.Logger, procedure *pipeline.Procedure, jobsRepo repository.ScanJobRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, procedure: procedure, jobsRepo: jobsRepo}
}

// Outcome is one processed document.
type Outcome struct {
	JobID  uuid.UUID
	Result *entity.Result
}

// ProcessFile reads path and runs the pipeline on its contents.
func (p *Processor) ProcessFile(ctx context.Context, path, categoryHint string) (Outcome, error) {
	req, err := RequestFromFile(path, categoryHint)
	if err != nil {
		return Outcome{}, err
	}
	return p.Process(ctx, req)
}

// Process runs the pipeline for req. A Result is returned even on failure.
func (p *Processor) Process(ctx context.Context, req entity.ExtractionRequest) (Outcome, error) {
	var out Outcome
	if p.jobsRepo != nil {
		category := pipeline.Analyzer{}.Analyze(req).Category
		job, err := p.jobsRepo.Create(ctx, req.Filename, category)
		if err != nil {
			return out, common.WrapError(err, "create scan job")
		}
		out.JobID = job.ID
		ctx = common.WithJobID(ctx, job.ID.String())
		if err := p.jobsRepo.MarkRunning(ctx, job.ID); err != nil {
			p.logger.Warn("processor.job.mark_running_failed", "job_id", job.ID, "err", err)
		}
	}

	res, err := p.procedure.Run(ctx, req)
	out.Result = res
	if err != nil {
		p.logger.Error("processor.run.failed", "filename", req.Filename, "job_id", out.JobID, "err", err)
		if p.jobsRepo != nil {
			if ferr := p.jobsRepo.FinishFailure(ctx, out.JobID, err.Error()); ferr != nil {
				p.logger.Error("processor.job.finish_failed", "job_id", out.JobID, "err", ferr)
			}
		}
		return out, err
	}

	p.logger.Info("processor.run.ok",
		"filename", req.Filename,
		"job_id", out.JobID,
		"fields_populated", res.FieldsPopulated,
		"accuracy", res.Accuracy,
		"strategy", res.Population.Strategy,
	)
	if p.jobsRepo != nil {
		if err := p.jobsRepo.FinishSuccess(ctx, out.JobID, res); err != nil {
			return out, err
		}
	}
	return out, nil
}

// RequestFromFile builds an extraction request from a supported local file.
func RequestFromFile(path, categoryHint string) (entity.ExtractionRequest, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return entity.ExtractionRequest{}, common.NewAppError(common.CodeInvalidRequest,
			fmt.Sprintf("unsupported file type %q", ext), common.ErrInvalidInput)
	}
	info, err := os.Stat(path)
	if err != nil {
		return entity.ExtractionRequest{}, common.NewAppError(common.CodeInvalidRequest, "stat file", err)
	}
	if info.Size() > maxFileBytes {
		return entity.ExtractionRequest{}, common.NewAppError(common.CodeInvalidRequest,
			fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), maxFileBytes), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.ExtractionRequest{}, common.NewAppError(common.CodeInvalidRequest, "read file", err)
	}
	return entity.ExtractionRequest{
		Content:      base64.StdEncoding.EncodeToString(data),
		Filename:     filepath.Base(path),
		MimeType:     constants.MimeForExt(ext),
		CategoryHint: categoryHint,
	}, nil
}
