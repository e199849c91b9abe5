// Package ingest discovers documents on disk and feeds them to the worker queue.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/internal/async"
)

// Inbox watches a directory and queues every new or changed document once
// per distinct content.
type Inbox struct {
	cfg    WatchConfig
	queue  async.Queue
	logger *slog.Logger
	seen   map[string]string // path -> content hash
}

func NewInbox(cfg WatchConfig, queue async.Queue) *Inbox {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{cfg: cfg, queue: queue, logger: logger, seen: map[string]string{}}
}

// Run blocks until ctx is done or the watcher stops.
func (in *Inbox) Run(ctx context.Context) error {
	events, errs, err := StartWatcher(ctx, in.cfg)
	if err != nil {
		return err
	}
	in.logger.Info("inbox watching", "roots", in.cfg.Roots, "initial_scan", in.cfg.InitialScan)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok {
				in.logger.Warn("inbox watcher error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return nil
			}
			in.handle(ctx, path)
		}
	}
}

func (in *Inbox) handle(ctx context.Context, path string) {
	sum, err := hashFile(path)
	if err != nil {
		in.logger.Warn("inbox hash failed", "path", path, "error", err)
		return
	}
	if in.seen[path] == sum {
		in.logger.Debug("inbox unchanged file skipped", "path", path)
		return
	}
	job := newJob(path, "")
	if err := in.queue.Enqueue(ctx, job); err != nil {
		in.logger.Error("inbox enqueue failed", "path", path, "error", err)
		return
	}
	in.seen[path] = sum
}

func newJob(path, categoryHint string) async.Job {
	return async.Job{
		ID:           uuid.New(),
		Path:         path,
		CategoryHint: categoryHint,
		SubmittedAt:  time.Now(),
		TraceID:      uuid.NewString(),
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
