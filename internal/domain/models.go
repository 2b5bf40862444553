package domain

import "time"

// TimeSeriesPoint is one day's aggregated demand for a (product, warehouse) pair.
type TimeSeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DemandForecast is the output of the forecasting pipeline for one
// (product, warehouse) pair.
type DemandForecast struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Predictions []float64 `json:"predictions"`
	Confidence  float64   `json:"confidence"`
	Method      string    `json:"method"`
	HorizonDays int       `json:"horizon_days"`
	// SeasonalFactors maps month (1-12) to demand multiplier relative to the
	// overall mean. Informational only; not folded into the predictions.
	SeasonalFactors map[int]float64 `json:"seasonal_factors,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// Forecast method tags.
const (
	MethodEnsemble      = "ensemble"
	MethodMovingAverage = "moving_average"
)

// ReorderSuggestion is derived from a fresh forecast on every call.
type ReorderSuggestion struct {
	ProductID       string  `json:"product_id"`
	WarehouseID     string  `json:"warehouse_id"`
	CurrentStock    int     `json:"current_stock"`
	ReorderPoint    int     `json:"reorder_point"`
	ReorderQuantity int     `json:"reorder_quantity"`
	SafetyStock     int     `json:"safety_stock"`
	LeadTimeDays    int     `json:"lead_time_days"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// RelatedEntity is a weak reference from an alert to a product, order or
// inventory item.
type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AnomalyAlert is generated fresh on each detection pass.
type AnomalyAlert struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Severity         string          `json:"severity"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	DetectedAt       time.Time       `json:"detected_at"`
	Confidence       float64         `json:"confidence"`
	RelatedEntities  []RelatedEntity `json:"related_entities"`
	SuggestedActions []string        `json:"suggested_actions"`
}

// DeliveryPrediction estimates arrival for a shipment from a warehouse.
type DeliveryPrediction struct {
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date"`
	ConfidenceScore       float64   `json:"confidence_score"`
	TransitDays           int       `json:"transit_days"`
	CarrierRecommendation string    `json:"carrier_recommendation"`
	FactorsConsidered     []string  `json:"factors_considered"`
}

// Address is the destination of a shipment.
type Address struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// OrderLine is a raw historical order-line row.
type OrderLine struct {
	Quantity  float64   `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductInfo carries the product attributes the reorder calculator needs.
// Optional columns stay pointers so every default decision is explicit.
type ProductInfo struct {
	ID           string   `json:"id" db:"product_id"`
	Name         string   `json:"name" db:"product_name"`
	LeadTimeDays *int     `json:"lead_time_days" db:"lead_time_days"`
	ServiceLevel *float64 `json:"service_level" db:"service_level"`
	UnitPrice    *float64 `json:"unit_price" db:"unit_price"`
	IsActive     bool     `json:"is_active" db:"is_active"`
}

// InventoryRow is one stock position. Product is nil when the linked
// product row is missing; such rows are skipped by policy.
type InventoryRow struct {
	ProductID    string       `json:"product_id" db:"product_id"`
	WarehouseID  string       `json:"warehouse_id" db:"warehouse_id"`
	Quantity     int          `json:"quantity" db:"quantity"`
	ReorderPoint *int         `json:"reorder_point" db:"reorder_point"`
	Product      *ProductInfo `json:"product"`
}

// Adjustment is a single inventory adjustment event.
type Adjustment struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	WarehouseID string    `json:"warehouse_id" db:"warehouse_id"`
	Delta       float64   `json:"delta" db:"adjustment_delta"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OrderSummary is an order header used by the order anomaly rules.
type OrderSummary struct {
	ID          string    `json:"id" db:"id"`
	OrderNumber string    `json:"order_number" db:"order_number"`
	Total       float64   `json:"total" db:"total"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PriceChange is one price-history row.
type PriceChange struct {
	ProductID   string    `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PredictionRecord is the write-sink shape for the prediction store.
// Upserts are keyed by (organization, prediction type, entity type,
// entity id, prediction date).
type PredictionRecord struct {
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	PredictionType string    `json:"prediction_type" db:"prediction_type"`
	EntityType     string    `json:"entity_type" db:"entity_type"`
	EntityID       string    `json:"entity_id" db:"entity_id"`
	PredictionDate time.Time `json:"prediction_date" db:"prediction_date"`
	Payload        []byte    `json:"payload" db:"payload"`
	ModelVersion   string    `json:"model_version" db:"model_version"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
}

// InsightRecord is the write-sink shape for the insight store.
type InsightRecord struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Type           string    `json:"type" db:"type"`
	Severity       string    `json:"severity" db:"severity"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	Payload        []byte    `json:"payload" db:"payload"`
	DetectedAt     time.Time `json:"detected_at" db:"detected_at"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
}

// Prediction store key constants.
const (
	PredictionTypeDemandForecast = "demand_forecast"
	PredictionTypeReorderPoint   = "reorder_point"
	EntityTypeProduct            = "product"

	ModelVersion = "1.0.0"
)
