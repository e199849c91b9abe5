package repository

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/common"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), common.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "jobs.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestScanJobLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewScanJobRepository(db, nil)

	job, err := repo.Create(ctx, "registration.pdf", constants.RegistrationCertificate)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusQueued, job.Status)

	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusRunning, got.Status)
	assert.Nil(t, got.FinishedAt)

	res := &entity.Result{Filename: "registration.pdf", Success: true, FieldsPopulated: 4, Accuracy: 100}
	require.NoError(t, repo.FinishSuccess(ctx, job.ID, res))

	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusExtracted, got.Status)
	assert.Equal(t, "registration.pdf", got.Filename)
	assert.Equal(t, string(constants.RegistrationCertificate), got.Category)
	assert.Equal(t, 4, got.FieldsPopulated)
	assert.Equal(t, 100.0, got.Accuracy)
	require.NotNil(t, got.FinishedAt)
	assert.Nil(t, got.ErrorMessage)

	var decoded entity.Result
	require.NoError(t, json.Unmarshal(got.ResultJSON, &decoded))
	assert.True(t, decoded.Success)
}

func TestScanJobFailureAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewScanJobRepository(openTestDB(t), nil)

	a, err := repo.Create(ctx, "a.pdf", constants.Unknown)
	require.NoError(t, err)
	_, err = repo.Create(ctx, "b.pdf", constants.Unknown)
	require.NoError(t, err)

	require.NoError(t, repo.FinishFailure(ctx, a.ID, "OCR_FAILED: document reader failed"))
	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "OCR_FAILED")

	jobs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestScanJobNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewScanJobRepository(openTestDB(t), nil)

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.MarkRunning(ctx, uuid.New()), common.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.migrate(ctx))

	var rows entsql.Rows
	require.NoError(t, db.Driver.Query(ctx, "SELECT COUNT(*) FROM scan_jobs", []any{}, &rows))
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	require.NoError(t, rows.Close())
	assert.Equal(t, 0, n)
	assert.NoError(t, db.HealthCheck(ctx, 0))
}

func TestScanJobsTableFromSchema(t *testing.T) {
	table, err := scanJobsTable()
	require.NoError(t, err)
	assert.Equal(t, "scan_jobs", table.Name)
	require.Len(t, table.PrimaryKey, 1)
	assert.Equal(t, "id", table.PrimaryKey[0].Name)
	assert.Equal(t, field.TypeUUID, table.PrimaryKey[0].Type)

	nullable := map[string]bool{}
	for _, c := range table.Columns {
		nullable[c.Name] = c.Nullable
	}
	assert.Len(t, nullable, len(scanJobColumns))
	assert.False(t, nullable["filename"])
	assert.True(t, nullable["finished_at"])
	assert.True(t, nullable["error_message"])
	assert.True(t, nullable["result_json"])

	var names []string
	for _, ix := range table.Indexes {
		names = append(names, ix.Name)
	}
	assert.ElementsMatch(t, []string{"scan_jobs_status_started_at", "scan_jobs_started_at"}, names)

	assert.NoError(t, table.validate("category", string(constants.SurveyReport)))
	assert.Error(t, table.validate("category", "yacht_brochure"))
	assert.NoError(t, table.validate("status", string(constants.JobStatusRunning)))
	assert.Error(t, table.validate("status", "DONE"))
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	repo := NewScanJobRepository(openTestDB(t), nil)

	_, err := repo.Create(context.Background(), "brochure.pdf", constants.Category("yacht_brochure"))
	require.Error(t, err)
	assert.Equal(t, common.CodeInvalidRequest, common.CodeOf(err))
	assert.ErrorIs(t, err, common.ErrValidation)

	jobs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default file", "", "yacht-extract.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"existing query", "file:jobs.db?mode=rwc", "file:jobs.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"caller pragmas kept", "jobs.db?_pragma=journal_mode(DELETE)", "jobs.db?_pragma=journal_mode(DELETE)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"fully specified", "jobs.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(100)", "jobs.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(100)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.in))
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "mysql"}, nil)
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}
