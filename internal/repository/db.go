package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	sqlschema "entgo.io/ent/dialect/sql/schema"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/yacht-extract/internal/common"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const defaultSQLiteDSN = "yacht-extract.db"

// DB is an open store. Pool is only set for Postgres.
type DB struct {
	Driver  *entsql.Driver
	Pool    *pgxpool.Pool
	Dialect Dialect
	logger  *slog.Logger
}

// Open connects to the configured driver and creates or upgrades the schema.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		db  *DB
		err error
	)
	switch Dialect(cfg.Driver) {
	case DialectPostgres:
		db, err = openPostgres(ctx, cfg, logger)
	case DialectSQLite, "":
		db, err = openSQLite(cfg, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "open database", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, common.NewAppError(common.CodeStorage, "migrate schema", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}
	if db.Dialect == DialectSQLite {
		// one writer at a time
		db.Driver.DB().SetMaxOpenConns(1)
	}
	logger.Info("successfully connected to database", "driver", db.Dialect)
	return db, nil
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DialectPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "yacht-extract"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for Ent
	drv := entsql.OpenDB(dialect.Postgres, stdlib.OpenDBFromPool(pool))
	return &DB{Driver: drv, Pool: pool, Dialect: DialectPostgres, logger: logger}, nil
}

func openSQLite(cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	dsn := sqliteDSN(cfg.DSN)
	logger.Info("connecting to database", "driver", DialectSQLite, "dsn", dsn)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Driver: entsql.OpenDB(dialect.SQLite, sqldb), Dialect: DialectSQLite, logger: logger}, nil
}

// sqliteDSN applies the pragmas the store relies on. Ent's migrator refuses
// to run with foreign keys off.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = defaultSQLiteDSN
	}
	var pragmas []string
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "journal_mode") {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// Close closes the database connections gracefully.
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.Driver.Close(); err != nil {
		db.logger.Error("failed to close ent driver", "error", err)
	}
	if db.Pool != nil {
		db.Pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the database within timeout.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	db.logger.Debug("pinging database")
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if db.Pool != nil {
		return db.Pool.Ping(ctx)
	}
	return db.Driver.DB().PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	jobs, err := scanJobsTable()
	if err != nil {
		return err
	}
	m, err := sqlschema.NewMigrate(db.Driver)
	if err != nil {
		return fmt.Errorf("ent migrate: %w", err)
	}
	if err := m.Create(ctx, jobs.Table); err != nil {
		return fmt.Errorf("ent migrate: %w", err)
	}
	db.logger.Info("schema up to date", "table", jobs.Name)
	return nil
}

// builder returns an ent SQL builder bound to the driver's dialect.
func (db *DB) builder() *entsql.DialectBuilder {
	return entsql.Dialect(db.Driver.Dialect())
}
