package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/yacht-extract/internal/async"
)

type FileResult struct {
	Path  string
	JobID string
	Err   string
}

type DirStats struct {
	Scanned uint32
	Matched uint32
	Queued  uint32
	Failed  uint32
}

// ListDirectory walks root and returns supported files in lexical order.
func ListDirectory(root string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		out = append(out, path)
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(out)
	return out, stats, nil
}

// EnqueueDirectory queues every supported file under root.
func EnqueueDirectory(ctx context.Context, q async.Queue, root, categoryHint string, skipHidden bool) ([]FileResult, DirStats, error) {
	paths, stats, err := ListDirectory(root, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		job := newJob(p, categoryHint)
		if err := q.Enqueue(ctx, job); err != nil {
			results = append(results, FileResult{Path: p, Err: err.Error()})
			stats.Failed++
			continue
		}
		results = append(results, FileResult{Path: p, JobID: job.ID.String()})
		stats.Queued++
	}
	return results, stats, nil
}
