package docai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/pipeline"
)

// Fallback tries Primary and, when it fails, Secondary.
type Fallback struct {
	Primary   pipeline.DocumentReader
	Secondary pipeline.DocumentReader
	Logger    *slog.Logger
}

func (f *Fallback) Read(ctx context.Context, req entity.OCRRequest) (entity.RawOCR, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := f.Primary.Read(ctx, req)
	if err == nil {
		return raw, nil
	}
	if f.Secondary == nil || ctx.Err() != nil {
		return entity.RawOCR{}, err
	}
	logger.Warn("docai.fallback.primary_failed", "filename", req.Filename, "error", err)
	raw, err2 := f.Secondary.Read(ctx, req)
	if err2 != nil {
		return entity.RawOCR{}, errors.Join(err, err2)
	}
	return raw, nil
}

// Reader is a configured document reader plus whatever it needs to release.
type Reader struct {
	pipeline.DocumentReader
	closers []func() error
}

func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// New builds the reader chain from cfg: the direct client when a URL is set,
// Document AI when a processor is set, and a Fallback when both are.
func New(ctx context.Context, cfg common.OCRConfig, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var readers []pipeline.DocumentReader
	r := &Reader{}
	if cfg.HasDirectOCR() {
		readers = append(readers, NewDirectClient(cfg.DirectURL, cfg.DirectAPIKey, cfg.DirectTimeout, logger).
			WithRateLimit(cfg.DirectRateLimit, cfg.DirectBurst))
	}
	if cfg.HasDocumentAI() {
		lib, err := NewClientLibrary(ctx, cfg, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "document ai client", err)
		}
		readers = append(readers, lib)
		r.closers = append(r.closers, lib.Close)
	}
	switch len(readers) {
	case 0:
		return nil, common.NewAppError(common.CodeConfig, "no OCR transport configured", common.ErrInvalidInput)
	case 1:
		r.DocumentReader = readers[0]
	default:
		r.DocumentReader = &Fallback{Primary: readers[0], Secondary: readers[1], Logger: logger}
	}
	logger.Info("docai.configured", "direct", cfg.HasDirectOCR(), "document_ai", cfg.HasDocumentAI(),
		"reader", fmt.Sprintf("%T", r.DocumentReader))
	return r, nil
}
