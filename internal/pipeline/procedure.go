// Package pipeline runs the extraction phases in strict order:
// analyze, OCR, recognize, map, validate, populate.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
)

// Phase names used in the run log.
const (
	PhaseRequest   = "request"
	PhaseAnalyze   = "analyze"
	PhaseOCR       = "ocr"
	PhaseRecognize = "recognize"
	PhaseMap       = "map"
	PhaseValidate  = "validate"
	PhasePopulate  = "populate"
)

// Procedure coordinates the six phases. It holds no per-call state.
type Procedure struct {
	Logger     *slog.Logger
	Reader     DocumentReader
	Analyzer   Analyzer
	Recognizer *Recognizer
	Mapper     *Mapper
	Validator  *Validator
	Scorer     Scorer
	Now        func() time.Time
}

type Option func(*Procedure)

// WithClock overrides time.Now for the validator and the run log.
func WithClock(now func() time.Time) Option {
	return func(p *Procedure) { p.Now = now }
}

func NewProcedure(reader DocumentReader, set *rules.Set, logger *slog.Logger, opts ...Option) *Procedure {
	if logger == nil {
		logger = slog.Default()
	}
	if set == nil {
		set = rules.Default()
	}
	p := &Procedure{
		Logger:     logger,
		Reader:     reader,
		Recognizer: NewRecognizer(set),
		Mapper:     NewMapper(set),
		Now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	p.Validator = NewValidator(set, p.Now)
	return p
}

// Run executes every phase for one request. On failure the Result carries
// Success=false, the error text and the log so far; the error is also returned.
func (p *Procedure) Run(ctx context.Context, req entity.ExtractionRequest) (*entity.Result, error) {
	start := p.Now()
	requestID := common.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = common.WithRequestID(ctx, requestID)
	}
	logger := p.Logger.With("request_id", requestID, "filename", req.Filename)
	if jobID := common.JobIDFromContext(ctx); jobID != "" {
		logger = logger.With("job_id", jobID)
	}
	log := &runLog{ctx: ctx, logger: logger, now: p.Now}
	res := &entity.Result{RequestID: requestID, Filename: req.Filename}
	fail := func(err error) (*entity.Result, error) {
		res.Success = false
		res.Error = err.Error()
		res.ProcessingTimeMS = p.Now().Sub(start).Milliseconds()
		res.Log = log.entries
		return res, err
	}

	v := common.NewValidator().
		Field("content", req.Content, common.Required, common.Base64).
		Field("filename", req.Filename, common.Required, common.MaxLength(255))
	if v.HasErrors() {
		log.error(PhaseRequest, "pipeline.request.invalid", "%s", v.ErrorMessage())
		return fail(common.NewAppError(common.CodeInvalidRequest, "invalid extraction request", v.Error()))
	}

	// 1) analyze
	fa := p.Analyzer.Analyze(req)
	res.Analysis = &fa
	log.info(PhaseAnalyze, "pipeline.analyze.ok", "mime=%s category=%s quality=%s size=%d recommendations=%v",
		fa.MimeType, fa.Category, fa.Quality, fa.SizeBytes, fa.Recommendations)

	// 2) OCR
	ocrReq := BuildOCRRequest(req, fa)
	raw, err := readDocument(ctx, p.Reader, ocrReq)
	if err != nil {
		log.error(PhaseOCR, "pipeline.ocr.failed", "document_type=%s: %v", ocrReq.DocumentType, err)
		return fail(err)
	}
	res.OCR = &raw
	log.info(PhaseOCR, "pipeline.ocr.ok", "transport=%s key_values=%d text_chars=%d confidence=%.2f",
		raw.Transport, len(raw.KeyValues), len(raw.Text), raw.Confidence)

	// 3) recognize
	rec := p.Recognizer.Recognize(raw)
	res.Recognition = &rec
	res.FieldsExtracted = len(rec.Fields)
	log.info(PhaseRecognize, "pipeline.recognize.ok", "fields=%d patterns=%v", len(rec.Fields), rec.AppliedPatterns)

	// 4) map
	m := p.Mapper.Map(rec)
	res.Mapping = &m
	res.FieldsMapped = len(m.Fields)
	if len(m.UnmappedFields) > 0 {
		log.warn(PhaseMap, "pipeline.map.unmapped", "kept %d unmapped fields: %v", len(m.UnmappedFields), m.UnmappedFields)
	}
	log.info(PhaseMap, "pipeline.map.ok", "fields=%d", len(m.Fields))

	// 5) validate
	val := p.Validator.Validate(m)
	res.Validation = &val
	res.FieldsValidated = len(val.Validated)
	for _, field := range sortedKeys(val.Rejected) {
		log.warn(PhaseValidate, "pipeline.validate.rejected", "%s: %s", field, val.Rejected[field])
	}
	if len(val.Missing) > 0 {
		log.warn(PhaseValidate, "pipeline.validate.missing", "required fields missing: %v", val.Missing)
	}
	log.info(PhaseValidate, "pipeline.validate.ok", "validated=%d rejected=%d", len(val.Validated), len(val.Rejected))

	// 6) populate
	pop, record := p.Scorer.Populate(val)
	res.Population = &pop
	res.Record = &record
	res.FieldsPopulated = len(pop.Fields)
	log.info(PhasePopulate, "pipeline.populate.ok", "fields=%d strategy=%s", len(pop.Fields), pop.Strategy)

	res.Accuracy = accuracy(res.FieldsPopulated, res.FieldsExtracted)
	res.Success = true
	res.ProcessingTimeMS = p.Now().Sub(start).Milliseconds()
	res.Log = log.entries
	return res, nil
}

// accuracy is populated / extracted as a percentage, capped at 100 since
// composite values can populate more fields than were extracted.
func accuracy(populated, extracted int) float64 {
	if extracted == 0 {
		return 0
	}
	pct := float64(populated) / float64(extracted) * 100
	return math.Min(100, math.Round(pct*100)/100)
}
