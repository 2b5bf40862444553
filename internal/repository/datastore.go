package repository

import (
	"context"
	"time"

	"github.com/truthsource/insight-service/internal/domain"
)

// DataStore is the single data-access collaborator of the analytics core.
// Implementations own organization scoping at the query level; the core
// passes the organization id through unchanged.
type DataStore interface {
	// FetchOrderLines returns the raw order lines for one (product, warehouse)
	// pair since the given date, oldest first.
	FetchOrderLines(ctx context.Context, productID, warehouseID string, since time.Time) ([]domain.OrderLine, error)

	// FetchInventory returns every inventory row of the organization with its
	// product joined in. Rows without a linked product carry a nil Product.
	FetchInventory(ctx context.Context, organizationID string) ([]domain.InventoryRow, error)

	FetchRecentAdjustments(ctx context.Context, organizationID string, since time.Time) ([]domain.Adjustment, error)
	FetchRecentOrders(ctx context.Context, organizationID string, since time.Time) ([]domain.OrderSummary, error)
	FetchRecentPriceChanges(ctx context.Context, organizationID string, since time.Time) ([]domain.PriceChange, error)

	// UpsertPrediction writes one prediction record, idempotent per
	// (organization, prediction_type, entity_type, entity_id, prediction_date).
	UpsertPrediction(ctx context.Context, record domain.PredictionRecord) error

	// InsertInsights appends detection results to the insight store.
	InsertInsights(ctx context.Context, records []domain.InsightRecord) error
}
