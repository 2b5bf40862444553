package domain

import "strings"

// Alert severities, ordered from least to most urgent.
const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityWarning  = "warning"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Anomaly alert types.
const (
	AnomalyAdjustmentSpike     = "adjustment_spike"
	AnomalyFrequentAdjustments = "frequent_adjustments"
	AnomalyStockOut            = "stock_out"
	AnomalyExcessInventory     = "excess_inventory"
	AnomalyOrderVolumeSpike    = "order_volume_spike"
	AnomalyOrderVolumeDrop     = "order_volume_drop"
	AnomalyLargeOrder          = "large_order"
	AnomalyPriceVolatility     = "price_volatility"
	AnomalyLargePriceChange    = "large_price_change"
)

// Detection scopes.
const (
	ScopeAll       = "all"
	ScopeInventory = "inventory"
	ScopeOrders    = "orders"
	ScopePricing   = "pricing"
)

var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityWarning:  2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// SeverityRank returns a sortable rank for a severity label, or -1 for an
// unknown label.
func SeverityRank(severity string) int {
	if rank, ok := severityRank[strings.ToLower(severity)]; ok {
		return rank
	}
	return -1
}

// ParseScope normalizes a detection scope (case-insensitive). Empty input
// defaults to ScopeAll.
func ParseScope(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", ScopeAll:
		return ScopeAll, true
	case ScopeInventory:
		return ScopeInventory, true
	case ScopeOrders:
		return ScopeOrders, true
	case ScopePricing:
		return ScopePricing, true
	default:
		return "", false
	}
}
