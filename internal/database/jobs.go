package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Job status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrJobNotFound is returned by GetJob when no job has the given ID.
var ErrJobNotFound = errors.New("job not found")

// Job is a single recorded conversion batch.
type Job struct {
	ID           string    `json:"id"`
	InputName    string    `json:"inputName"`
	InputFormat  string    `json:"inputFormat"`
	OutputFormat string    `json:"outputFormat"`
	Unit         string    `json:"unit"`
	OutputCount  int       `json:"outputCount"`
	InputBytes   int64     `json:"inputBytes"`
	OutputBytes  int64     `json:"outputBytes"`
	DurationMS   int64     `json:"durationMs"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	ExifSummary  string    `json:"exifSummary,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Stats summarizes recorded jobs.
type Stats struct {
	TotalJobs   int64 `json:"totalJobs"`
	Succeeded   int64 `json:"succeeded"`
	Failed      int64 `json:"failed"`
	OutputFiles int64 `json:"outputFiles"`
	InputBytes  int64 `json:"inputBytes"`
	OutputBytes int64 `json:"outputBytes"`
}

// RecordJob inserts a completed job row.
func (d *Database) RecordJob(ctx context.Context, job Job) error {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := d.db.ExecContext(opCtx, `
		INSERT INTO jobs (id, input_name, input_format, output_format, unit,
			output_count, input_bytes, output_bytes, duration_ms,
			status, error, exif_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.InputName, job.InputFormat, job.OutputFormat, job.Unit,
		job.OutputCount, job.InputBytes, job.OutputBytes, job.DurationMS,
		job.Status, job.Error, job.ExifSummary, createdAt.Unix())
	observeQuery("record_job", start, err)
	if err != nil {
		return fmt.Errorf("failed to record job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns a single job by ID.
func (d *Database) GetJob(ctx context.Context, id string) (*Job, error) {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(opCtx, `
		SELECT id, input_name, input_format, output_format, unit,
			output_count, input_bytes, output_bytes, duration_ms,
			status, error, exif_summary, created_at
		FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	observeQuery("get_job", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs, newest first. limit <= 0 means
// a default page of 50.
func (d *Database) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx, `
		SELECT id, input_name, input_format, output_format, unit,
			output_count, input_bytes, output_bytes, duration_ms,
			status, error, exif_summary, created_at
		FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
	observeQuery("list_jobs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}
	return jobs, nil
}

// GetStats aggregates totals across all recorded jobs.
func (d *Database) GetStats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats Stats
	err := d.db.QueryRowContext(opCtx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(output_count), 0),
			COALESCE(SUM(input_bytes), 0),
			COALESCE(SUM(output_bytes), 0)
		FROM jobs`, StatusSuccess, StatusFailed).Scan(
		&stats.TotalJobs, &stats.Succeeded, &stats.Failed,
		&stats.OutputFiles, &stats.InputBytes, &stats.OutputBytes)
	observeQuery("get_stats", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var createdAt int64
	if err := row.Scan(&job.ID, &job.InputName, &job.InputFormat, &job.OutputFormat,
		&job.Unit, &job.OutputCount, &job.InputBytes, &job.OutputBytes,
		&job.DurationMS, &job.Status, &job.Error, &job.ExifSummary,
		&createdAt); err != nil {
		return nil, err
	}
	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &job, nil
}
