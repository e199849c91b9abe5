// Package app wires configuration into the running pipeline.
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/core"
	"github.com/joseph-ayodele/yacht-extract/internal/docai"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
	"github.com/joseph-ayodele/yacht-extract/internal/pipeline"
	"github.com/joseph-ayodele/yacht-extract/internal/repository"
	"github.com/joseph-ayodele/yacht-extract/internal/rules"
)

// Options selects which parts of the stack Build opens.
type Options struct {
	Store bool // open the scan job database
	OCR   bool // configure a document reader
}

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Rules     *rules.Set
	DB        *repository.DB
	Jobs      repository.ScanJobRepository
	Reader    *docai.Reader
	Procedure *pipeline.Procedure
	Processor *core.Processor
	Merger    *onboarding.Merger
}

func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set, err := LoadRules(cfg.Pipeline.RulesDir)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config: cfg,
		Logger: logger,
		Rules:  set,
		Merger: onboarding.NewMerger(set, logger, time.Now),
	}

	var reader pipeline.DocumentReader
	if opts.OCR {
		r, err := docai.New(ctx, cfg.OCR, logger)
		if err != nil {
			return nil, err
		}
		a.Reader = r
		reader = r
	}
	if opts.Store {
		db, err := repository.Open(ctx, cfg.Database, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.DB = db
		a.Jobs = repository.NewScanJobRepository(db, logger)
	}

	a.Procedure = pipeline.NewProcedure(reader, set, logger)
	a.Processor = core.NewProcessor(logger, a.Procedure, a.Jobs)
	return a, nil
}

// LoadRules reads the rule tables from dir, or the embedded ones when dir is empty.
func LoadRules(dir string) (*rules.Set, error) {
	if dir == "" {
		return rules.Default(), nil
	}
	set, err := rules.Load(os.DirFS(dir))
	if err != nil {
		return nil, common.NewAppError(common.CodeConfig, "load rules from "+dir, err)
	}
	return set, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Reader != nil {
		errs = append(errs, a.Reader.Close())
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return errors.Join(errs...)
}
