package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/repository"
)

type dataStore struct {
	db *DB
}

// NewDataStore wraps the connection pool in the analytics DataStore contract.
func NewDataStore(db *DB) repository.DataStore {
	return &dataStore{db: db}
}

func (s *dataStore) FetchOrderLines(ctx context.Context, productID, warehouseID string, since time.Time) ([]domain.OrderLine, error) {
	query := `
		SELECT oi.quantity, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id = $1
		  AND o.warehouse_id = $2
		  AND o.created_at >= $3
		ORDER BY o.created_at
	`

	var lines []domain.OrderLine
	if err := s.db.SelectContext(ctx, &lines, query, productID, warehouseID, since); err != nil {
		return nil, fmt.Errorf("error fetching order lines: %w", err)
	}

	return lines, nil
}

// inventoryScanRow carries the LEFT JOIN result; product columns are nullable
// because the product row may be missing.
type inventoryScanRow struct {
	ProductID    string   `db:"product_id"`
	WarehouseID  string   `db:"warehouse_id"`
	Quantity     int      `db:"quantity"`
	ReorderPoint *int     `db:"reorder_point"`
	PID          *string  `db:"pid"`
	PName        *string  `db:"product_name"`
	LeadTimeDays *int     `db:"lead_time_days"`
	ServiceLevel *float64 `db:"service_level"`
	UnitPrice    *float64 `db:"unit_price"`
	IsActive     *bool    `db:"is_active"`
}

func (s *dataStore) FetchInventory(ctx context.Context, organizationID string) ([]domain.InventoryRow, error) {
	query := `
		SELECT
			i.product_id, i.warehouse_id, i.quantity, i.reorder_point,
			p.id AS pid, p.name AS product_name, p.lead_time_days,
			p.service_level, p.unit_price, p.is_active
		FROM inventory i
		LEFT JOIN products p ON p.id = i.product_id AND p.organization_id = i.organization_id
		WHERE i.organization_id = $1
	`

	var scanned []inventoryScanRow
	if err := s.db.SelectContext(ctx, &scanned, query, organizationID); err != nil {
		return nil, fmt.Errorf("error fetching inventory: %w", err)
	}

	rows := make([]domain.InventoryRow, 0, len(scanned))
	for _, sc := range scanned {
		row := domain.InventoryRow{
			ProductID:    sc.ProductID,
			WarehouseID:  sc.WarehouseID,
			Quantity:     sc.Quantity,
			ReorderPoint: sc.ReorderPoint,
		}
		if sc.PID != nil {
			name := ""
			if sc.PName != nil {
				name = *sc.PName
			}
			active := false
			if sc.IsActive != nil {
				active = *sc.IsActive
			}
			row.Product = &domain.ProductInfo{
				ID:           *sc.PID,
				Name:         name,
				LeadTimeDays: sc.LeadTimeDays,
				ServiceLevel: sc.ServiceLevel,
				UnitPrice:    sc.UnitPrice,
				IsActive:     active,
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *dataStore) FetchRecentAdjustments(ctx context.Context, organizationID string, since time.Time) ([]domain.Adjustment, error) {
	query := `
		SELECT
			a.product_id,
			COALESCE(p.name, '') AS product_name,
			a.warehouse_id,
			a.adjustment_delta,
			a.created_at
		FROM inventory_adjustments a
		LEFT JOIN products p ON p.id = a.product_id
		WHERE a.organization_id = $1 AND a.created_at >= $2
		ORDER BY a.created_at
	`

	var adjustments []domain.Adjustment
	if err := s.db.SelectContext(ctx, &adjustments, query, organizationID, since); err != nil {
		return nil, fmt.Errorf("error fetching adjustments: %w", err)
	}

	return adjustments, nil
}

func (s *dataStore) FetchRecentOrders(ctx context.Context, organizationID string, since time.Time) ([]domain.OrderSummary, error) {
	query := `
		SELECT id, order_number, total, created_at
		FROM orders
		WHERE organization_id = $1 AND created_at >= $2
		ORDER BY created_at
	`

	var orders []domain.OrderSummary
	if err := s.db.SelectContext(ctx, &orders, query, organizationID, since); err != nil {
		return nil, fmt.Errorf("error fetching orders: %w", err)
	}

	return orders, nil
}

func (s *dataStore) FetchRecentPriceChanges(ctx context.Context, organizationID string, since time.Time) ([]domain.PriceChange, error) {
	query := `
		SELECT
			ph.product_id,
			COALESCE(p.name, '') AS product_name,
			ph.price,
			ph.created_at
		FROM price_history ph
		LEFT JOIN products p ON p.id = ph.product_id
		WHERE ph.organization_id = $1 AND ph.created_at >= $2
		ORDER BY ph.product_id, ph.created_at
	`

	var changes []domain.PriceChange
	if err := s.db.SelectContext(ctx, &changes, query, organizationID, since); err != nil {
		return nil, fmt.Errorf("error fetching price changes: %w", err)
	}

	return changes, nil
}

func (s *dataStore) UpsertPrediction(ctx context.Context, record domain.PredictionRecord) error {
	query := `
		INSERT INTO predictions (
			organization_id, prediction_type, entity_type, entity_id,
			prediction_date, payload, model_version, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organization_id, prediction_type, entity_type, entity_id, prediction_date)
		DO UPDATE SET payload = EXCLUDED.payload,
		              model_version = EXCLUDED.model_version,
		              expires_at = EXCLUDED.expires_at
	`

	_, err := s.db.ExecContext(
		ctx, query,
		record.OrganizationID, record.PredictionType, record.EntityType, record.EntityID,
		record.PredictionDate, record.Payload, record.ModelVersion, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting prediction: %w", err)
	}

	return nil
}

func (s *dataStore) InsertInsights(ctx context.Context, records []domain.InsightRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO insights (
			id, organization_id, type, severity, title,
			description, payload, detected_at, expires_at
		) VALUES (:id, :organization_id, :type, :severity, :title,
		          :description, :payload, :detected_at, :expires_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, records); err != nil {
		return fmt.Errorf("error inserting insights: %w", err)
	}

	return nil
}
