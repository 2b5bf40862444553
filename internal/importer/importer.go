package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// orderRow is one parsed line of an order-history export.
type orderRow struct {
	OrderID     string
	ProductID   string
	WarehouseID string
	Quantity    float64
	UnitPrice   float64
	CreatedAt   time.Time
}

// Importer backfills order history from CSV exports so forecasting has
// demand data to work from on a fresh installation.
type Importer struct {
	db   *sqlx.DB
	repo *Repository
	cfg  Config
}

func NewImporter(db *sqlx.DB, cfg Config) *Importer {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Importer{db: db, repo: NewRepository(db), cfg: cfg}
}

// ImportFiles runs the backfill over the given CSV files. Files are
// processed by a worker pool; a failed file fails the run but files already
// imported stay imported.
func (i *Importer) ImportFiles(ctx context.Context, organizationID string, files []string) (*Run, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to import")
	}

	run := &Run{
		OrganizationID: organizationID,
		Status:         StatusPending,
		TotalFiles:     len(files),
		StartedAt:      time.Now(),
	}
	if err := i.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	jobs := make([]*FileJob, len(files))
	for idx, file := range files {
		job := &FileJob{RunID: run.ID, FilePath: file, Status: FileStatusQueued}
		if err := i.repo.CreateFileJob(ctx, job); err != nil {
			return nil, err
		}
		jobs[idx] = job
	}

	run.Status = StatusProcessing
	if err := i.repo.UpdateRun(ctx, run); err != nil {
		return nil, err
	}

	if err := i.processParallel(ctx, run, jobs); err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		run.CompletedAt = completedAt()
		if updateErr := i.repo.UpdateRun(ctx, run); updateErr != nil {
			log.Error().Err(updateErr).Int64("run_id", run.ID).Msg("import: run update failed")
		}
		return run, err
	}

	run.Status = StatusCompleted
	run.CompletedAt = completedAt()
	if err := i.repo.UpdateRun(ctx, run); err != nil {
		return run, err
	}

	refreshed, err := i.repo.GetRun(ctx, run.ID)
	if err != nil {
		return run, nil
	}
	return refreshed, nil
}

func (i *Importer) processParallel(ctx context.Context, run *Run, jobs []*FileJob) error {
	jobChan := make(chan *FileJob, len(jobs))
	errChan := make(chan error, i.cfg.WorkerCount)
	var wg sync.WaitGroup

	for w := 0; w < i.cfg.WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				if err := i.processFile(ctx, run, job); err != nil {
					log.Error().Err(err).Str("file", job.FilePath).Msg("import: file failed")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(jobChan)
			return ctx.Err()
		case jobChan <- job:
		}
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}
	return nil
}

func (i *Importer) processFile(ctx context.Context, run *Run, job *FileJob) error {
	job.Status = FileStatusProcessing
	if err := i.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	rows, err := parseFile(job.FilePath)
	if err != nil {
		return i.markJobFailed(ctx, job, err)
	}

	if err := i.insertRows(ctx, run.OrganizationID, rows); err != nil {
		return i.markJobFailed(ctx, job, err)
	}

	job.Status = FileStatusCompleted
	job.ProcessedAt = completedAt()
	if err := i.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := i.repo.RecordFileResult(ctx, run.ID, len(rows)); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("import: run counters not updated")
	}

	log.Info().Str("file", job.FilePath).Int("rows", len(rows)).Msg("import: file complete")
	return nil
}

func (i *Importer) markJobFailed(ctx context.Context, job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	if updateErr := i.repo.UpdateFileJob(ctx, job); updateErr != nil {
		log.Error().Err(updateErr).Str("file", job.FilePath).Msg("import: job update failed")
	}
	return err
}

// insertRows writes orders and their line items in one transaction per
// file. Re-imports of the same export are harmless: known order IDs are
// skipped.
func (i *Importer) insertRows(ctx context.Context, organizationID string, rows []orderRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := i.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, organization_id, warehouse_id, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`

	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.OrderID] += row.Quantity * row.UnitPrice
	}

	seen := make(map[string]bool, len(totals))
	for _, row := range rows {
		if !seen[row.OrderID] {
			seen[row.OrderID] = true
			if _, err := tx.ExecContext(ctx, orderQuery,
				row.OrderID, organizationID, row.WarehouseID, totals[row.OrderID], row.CreatedAt); err != nil {
				return fmt.Errorf("error inserting order %s: %w", row.OrderID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, itemQuery,
			row.OrderID, row.ProductID, row.Quantity, row.UnitPrice); err != nil {
			return fmt.Errorf("error inserting order line for %s: %w", row.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing import transaction: %w", err)
	}
	return nil
}

// parseFile reads one CSV export. Expected header:
// order_id,product_id,warehouse_id,quantity,unit_price,created_at
func parseFile(path string) ([]orderRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header of %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, required := range []string{"order_id", "product_id", "warehouse_id", "quantity", "unit_price", "created_at"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	var rows []orderRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line+1, err)
		}
		line++

		quantity, err := strconv.ParseFloat(strings.TrimSpace(record[cols["quantity"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid quantity: %w", path, line, err)
		}
		unitPrice, err := strconv.ParseFloat(strings.TrimSpace(record[cols["unit_price"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid unit_price: %w", path, line, err)
		}
		createdAt, err := parseTimestamp(strings.TrimSpace(record[cols["created_at"]]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid created_at: %w", path, line, err)
		}

		rows = append(rows, orderRow{
			OrderID:     strings.TrimSpace(record[cols["order_id"]]),
			ProductID:   strings.TrimSpace(record[cols["product_id"]]),
			WarehouseID: strings.TrimSpace(record[cols["warehouse_id"]]),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			CreatedAt:   createdAt,
		})
	}

	return rows, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
