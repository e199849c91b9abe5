package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/async"
	"github.com/joseph-ayodele/yacht-extract/internal/export"
	"github.com/joseph-ayodele/yacht-extract/internal/ingest"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Scan every document under a directory and write a fleet workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().String("out", "", "output XLSX path (default <dir>/fleet.xlsx)")
	batchCmd.Flags().Int("workers", 0, "concurrent scans (default from config)")
	batchCmd.Flags().String("category", "", "category hint applied to every file")
	batchCmd.Flags().Bool("store", false, "record each run as a scan job")
	batchCmd.Flags().Bool("include-hidden", false, "descend into hidden directories")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	outPath, _ := cmd.Flags().GetString("out")
	workers, _ := cmd.Flags().GetInt("workers")
	category, _ := cmd.Flags().GetString("category")
	store, _ := cmd.Flags().GetBool("store")
	includeHidden, _ := cmd.Flags().GetBool("include-hidden")
	if outPath == "" {
		outPath = filepath.Join(dir, "fleet.xlsx")
	}
	if workers <= 0 {
		workers = cfg.Queue.Workers
	}

	a, err := build(cmd, app.Options{OCR: true, Store: store})
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		mu   sync.Mutex
		rows []export.Row
	)
	handler := async.HandlerFunc(func(ctx context.Context, job async.Job) error {
		out, err := a.Processor.ProcessFile(ctx, job.Path, job.CategoryHint)
		row := export.Row{Filename: filepath.Base(job.Path), Result: out.Result}
		if err != nil {
			row.Err = err.Error()
		}
		mu.Lock()
		rows = append(rows, row)
		mu.Unlock()
		return err
	})
	q := async.NewWorkerQueue(handler, logger,
		async.WithWorkers(workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	results, stats, err := ingest.EnqueueDirectory(cmd.Context(), q, dir, category, !includeHidden)
	q.Shutdown(context.Background())
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != "" {
			rows = append(rows, export.Row{Filename: filepath.Base(r.Path), Err: r.Err})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Filename < rows[j].Filename })

	data, err := export.NewService(a.Jobs, a.Merger, logger).FleetXLSX(rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	failed := 0
	for _, r := range rows {
		if r.Err != "" {
			failed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d matched=%d queued=%d failed=%d -> %s\n",
		stats.Scanned, stats.Matched, stats.Queued, failed, outPath)
	return nil
}
