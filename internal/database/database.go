package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-converter/internal/logging"
	"media-converter/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database stores conversion job history.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the job history database. dbPath must be the
// full path to the database file and its parent directory must exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	// WAL mode keeps readers unblocked while jobs are recorded
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}
	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("job database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		input_name TEXT NOT NULL,
		input_format TEXT NOT NULL,
		output_format TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		output_count INTEGER NOT NULL DEFAULT 0,
		input_bytes INTEGER NOT NULL DEFAULT 0,
		output_bytes INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		exif_summary TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(initCtx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (d *Database) Close() error {
	return d.db.Close()
}

func observeQuery(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(op, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
