package importer

import "time"

// RunStatus represents the state of an import run.
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// FileStatus represents the state of a single file job.
type FileStatus string

const (
	FileStatusQueued     FileStatus = "queued"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// Run tracks one execution of the order-history backfill.
type Run struct {
	ID             int64      `db:"id"`
	OrganizationID string     `db:"organization_id"`
	Status         RunStatus  `db:"status"`
	TotalFiles     int        `db:"total_files"`
	ProcessedFiles int        `db:"processed_files"`
	TotalRows      int        `db:"total_rows"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	ErrorMessage   string     `db:"error_message"`
}

// FileJob tracks one CSV file within a run.
type FileJob struct {
	ID           int64      `db:"id"`
	RunID        int64      `db:"run_id"`
	FilePath     string     `db:"file_path"`
	Status       FileStatus `db:"status"`
	ErrorMessage string     `db:"error_message"`
	ProcessedAt  *time.Time `db:"processed_at"`
}

// Config holds importer tuning knobs.
type Config struct {
	WorkerCount int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{WorkerCount: 4}
}
