package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

type ScanJobRepository interface {
	Create(ctx context.Context, filename string, category constants.Category) (*entity.ScanJob, error)
	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	FinishSuccess(ctx context.Context, jobID uuid.UUID, res *entity.Result) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ScanJob, error)
	List(ctx context.Context, limit int) ([]entity.ScanJob, error)
}

type scanJobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewScanJobRepository(db *DB, log *slog.Logger) ScanJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &scanJobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

var scanJobColumns = []string{
	"id", "filename", "category", "status", "started_at", "finished_at",
	"error_message", "fields_populated", "accuracy", "result_json",
}

func (r *scanJobRepo) Create(ctx context.Context, filename string, category constants.Category) (*entity.ScanJob, error) {
	table, err := scanJobsTable()
	if err != nil {
		return nil, storageError("create scan job", err)
	}
	job := &entity.ScanJob{
		ID:        uuid.New(),
		Filename:  filename,
		Category:  string(category),
		Status:    constants.JobStatusQueued,
		StartedAt: r.now(),
	}
	for col, v := range map[string]string{"filename": job.Filename, "category": job.Category, "status": string(job.Status)} {
		if err := table.validate(col, v); err != nil {
			return nil, common.NewAppError(common.CodeInvalidRequest, "invalid scan job", fmt.Errorf("%w: %w", common.ErrValidation, err))
		}
	}

	q, args := r.db.builder().Insert(table.Name).
		Columns("id", "filename", "category", "status", "started_at", "fields_populated", "accuracy").
		Values(job.ID.String(), job.Filename, job.Category, string(job.Status), job.StartedAt, 0, 0.0).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("scan_job create failed", "filename", filename, "err", err)
		return nil, storageError("create scan job", err)
	}
	r.log.Info("scan_job created", "job_id", job.ID, "filename", filename, "category", category)
	return job, nil
}

func (r *scanJobRepo) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	return r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusRunning))
	})
}

func (r *scanJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, res *entity.Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	err = r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusExtracted)).
			Set("finished_at", r.now()).
			Set("fields_populated", res.FieldsPopulated).
			Set("accuracy", res.Accuracy).
			Set("result_json", string(b)).
			SetNull("error_message")
	})
	if err != nil {
		r.log.Error("scan_job finish(EXTRACTED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("scan_job finished (EXTRACTED)", "job_id", jobID, "fields", res.FieldsPopulated, "accuracy", res.Accuracy)
	return nil
}

func (r *scanJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(constants.JobStatusFailed)).
			Set("finished_at", r.now()).
			Set("error_message", message)
	})
	if err != nil {
		r.log.Error("scan_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("scan_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *scanJobRepo) update(ctx context.Context, jobID uuid.UUID, set func(*entsql.UpdateBuilder)) error {
	table, err := scanJobsTable()
	if err != nil {
		return storageError("update scan job", err)
	}
	u := r.db.builder().Update(table.Name)
	set(u)
	q, args := u.Where(entsql.EQ("id", jobID.String())).Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return storageError("update scan job", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("scan job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *scanJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ScanJob, error) {
	jobs, err := r.query(ctx, func(s *entsql.Selector) {
		s.Where(entsql.EQ("id", jobID.String()))
	})
	if err != nil {
		return nil, storageError("get scan job", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("scan job %s: %w", jobID, common.ErrNotFound)
	}
	return &jobs[0], nil
}

// List returns the newest jobs first.
func (r *scanJobRepo) List(ctx context.Context, limit int) ([]entity.ScanJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := r.query(ctx, func(s *entsql.Selector) {
		s.OrderBy(entsql.Desc("started_at"), "id").Limit(limit)
	})
	if err != nil {
		return nil, storageError("list scan jobs", err)
	}
	return jobs, nil
}

func (r *scanJobRepo) query(ctx context.Context, where func(*entsql.Selector)) ([]entity.ScanJob, error) {
	table, err := scanJobsTable()
	if err != nil {
		return nil, err
	}
	b := r.db.builder()
	s := b.Select(scanJobColumns...).From(b.Table(table.Name))
	where(s)
	q, args := s.Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ScanJob
	for rows.Next() {
		job, err := scanJob(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.ScanJob, error) {
	var (
		id, status string
		finished   sql.NullTime
		errMsg     sql.NullString
		resultJSON sql.NullString
		job        entity.ScanJob
	)
	if err := row.Scan(&id, &job.Filename, &job.Category, &status, &job.StartedAt, &finished,
		&errMsg, &job.FieldsPopulated, &job.Accuracy, &resultJSON); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", id, err)
	}
	job.ID = parsed
	job.Status = constants.JobStatus(status)
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if resultJSON.Valid && resultJSON.String != "" {
		job.ResultJSON = json.RawMessage(resultJSON.String)
	}
	return &job, nil
}

func storageError(msg string, err error) error {
	return common.NewAppError(common.CodeStorage, msg, fmt.Errorf("%w: %w", common.ErrDatabase, err))
}
