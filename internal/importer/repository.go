package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository tracks import runs and file jobs.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO import_runs (
			organization_id, status, total_files, processed_files, total_rows, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(
		ctx, query,
		run.OrganizationID, run.Status, run.TotalFiles, run.ProcessedFiles, run.TotalRows, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("error creating import run: %w", err)
	}
	return nil
}

func (r *Repository) UpdateRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE import_runs
		SET status = $1, processed_files = $2, total_rows = $3,
		    completed_at = $4, error_message = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.ProcessedFiles, run.TotalRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating import run: %w", err)
	}
	return nil
}

func (r *Repository) CreateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		INSERT INTO import_file_jobs (run_id, file_path, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, job.RunID, job.FilePath, job.Status).Scan(&job.ID)
	if err != nil {
		return fmt.Errorf("error creating file job: %w", err)
	}
	return nil
}

func (r *Repository) UpdateFileJob(ctx context.Context, job *FileJob) error {
	query := `
		UPDATE import_file_jobs
		SET status = $1, error_message = $2, processed_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, job.Status, job.ErrorMessage, job.ProcessedAt, job.ID)
	if err != nil {
		return fmt.Errorf("error updating file job: %w", err)
	}
	return nil
}

func (r *Repository) RecordFileResult(ctx context.Context, runID int64, rows int) error {
	query := `
		UPDATE import_runs
		SET processed_files = processed_files + 1, total_rows = total_rows + $1
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, rows, runID); err != nil {
		return fmt.Errorf("error recording file result: %w", err)
	}
	return nil
}

// GetRun retrieves an import run by ID.
func (r *Repository) GetRun(ctx context.Context, id int64) (*Run, error) {
	query := `
		SELECT id, organization_id, status, total_files, processed_files,
		       total_rows, started_at, completed_at, error_message
		FROM import_runs
		WHERE id = $1
	`
	run := &Run{}
	if err := r.db.GetContext(ctx, run, query, id); err != nil {
		return nil, fmt.Errorf("error fetching import run: %w", err)
	}
	return run, nil
}

func completedAt() *time.Time {
	now := time.Now()
	return &now
}
