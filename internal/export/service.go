package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
	"github.com/joseph-ayodele/yacht-extract/internal/repository"
)

const (
	fleetSheet = "Fleet"
	maxCell    = 140
)

// Row is one document in the fleet sheet.
type Row struct {
	Filename string
	Result   *entity.Result
	Err      string
}

// Service produces XLSX workbooks of extracted vessel records. With a
// merger, each row is the onboarding merge of its result, so the sheet
// agrees with what the merge command would store.
type Service struct {
	jobsRepo repository.ScanJobRepository
	merger   *onboarding.Merger
	logger   *slog.Logger
}

func NewService(jobsRepo repository.ScanJobRepository, merger *onboarding.Merger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: jobsRepo, merger: merger, logger: logger}
}

var leadHeaders = []string{"File", "Status", "Strategy", "Accuracy %", "Fields Populated"}

// FleetXLSX writes one row per document: run summary, then every canonical
// record field, then extras joined as key=value.
func (s *Service) FleetXLSX(rows []Row) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", fleetSheet); err != nil {
		return nil, err
	}
	fields := entity.RecordFields()
	headers := append(append(append([]string{}, leadHeaders...), fields...), "Extras")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(fleetSheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(fleetSheet, "A1", last, style)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(fleetSheet, cell, v)
		}
		write(1, r.Filename)
		res := r.Result
		if res == nil || !res.Success {
			msg := r.Err
			if msg == "" && res != nil {
				msg = res.Error
			}
			write(2, "FAILED: "+truncate(msg, maxCell))
			continue
		}
		write(2, "OK")
		if res.Population != nil {
			write(3, res.Population.Strategy)
		}
		write(4, res.Accuracy)
		write(5, res.FieldsPopulated)
		rec := s.record(res)
		if rec == nil {
			continue
		}
		for j, field := range fields {
			if v, ok := rec.Get(field); ok {
				write(len(leadHeaders)+j+1, v)
			}
		}
		write(len(headers), truncate(extras(rec), maxCell))
	}

	_ = f.SetColWidth(fleetSheet, "A", "A", 32)
	_ = f.SetColWidth(fleetSheet, "B", "B", 24)
	_ = f.SetColWidth(fleetSheet, "C", "C", 18)
	_ = f.SetPanes(fleetSheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok", "rows", len(rows), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// JobsXLSX exports the most recent scan jobs from the store.
func (s *Service) JobsXLSX(ctx context.Context, limit int) ([]byte, error) {
	if s.jobsRepo == nil {
		return nil, fmt.Errorf("no job store configured")
	}
	jobs, err := s.jobsRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan jobs: %w", err)
	}
	rows := make([]Row, 0, len(jobs))
	for _, j := range jobs {
		row := Row{Filename: j.Filename}
		if j.ErrorMessage != nil {
			row.Err = *j.ErrorMessage
		}
		if len(j.ResultJSON) > 0 {
			var res entity.Result
			if err := json.Unmarshal(j.ResultJSON, &res); err != nil {
				s.logger.Warn("export.job.bad_result", "job_id", j.ID, "error", err)
			} else {
				row.Result = &res
			}
		}
		rows = append(rows, row)
	}
	return s.FleetXLSX(rows)
}

// record is the vessel record shown for res. Extras always come from the
// pipeline record since the merge only carries canonical fields.
func (s *Service) record(res *entity.Result) *entity.YachtRecord {
	if s.merger == nil {
		return res.Record
	}
	merged := s.merger.MergeResults(onboarding.State{}, res)
	if len(merged.Fields) == 0 && res.Record == nil {
		return nil
	}
	rec := merged.Record()
	if res.Record != nil {
		rec.Extras = res.Record.Extras
	}
	return &rec
}

func extras(r *entity.YachtRecord) string {
	out := ""
	for i, k := range r.ExtraKeys() {
		if i > 0 {
			out += "; "
		}
		out += k + "=" + r.Extras[k]
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
