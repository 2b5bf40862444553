package reorder

import (
	"fmt"
	"math"
	"sort"

	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
)

// Policy defaults, applied when the product doesn't configure its own.
const (
	DefaultLeadTimeDays = 7
	DefaultServiceLevel = 0.95
	DefaultOrderCost    = 50.0
	DefaultHoldingRate  = 0.25
	DaysPerYear         = 365
)

// zTable maps service level to the one-sided normal z-score used in the
// safety-stock formula. Unlisted service levels snap to the nearest key.
var zTable = map[float64]float64{
	0.90: 1.28,
	0.95: 1.65,
	0.97: 1.88,
	0.99: 2.33,
}

// zSnapTolerance treats distances this close as equal so that levels exactly
// between two table keys, like 0.925, snap down despite float64 rounding.
const zSnapTolerance = 1e-9

// ZScore returns the z value for a service level via nearest-neighbor lookup
// over the configured table. Ties resolve to the lower service level.
func ZScore(serviceLevel float64) float64 {
	keys := make([]float64, 0, len(zTable))
	for k := range zTable {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	best := keys[0]
	bestDist := math.Abs(best - serviceLevel)
	for _, k := range keys[1:] {
		if d := math.Abs(k - serviceLevel); d < bestDist-zSnapTolerance {
			best, bestDist = k, d
		}
	}
	return zTable[best]
}

// Calculator derives reorder parameters from a demand forecast using the
// classic service-level and EOQ formulas.
type Calculator struct {
	cfg config.AnalyticsConfig
}

func NewCalculator(cfg config.AnalyticsConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) leadTimeDays(p *domain.ProductInfo) int {
	if p != nil && p.LeadTimeDays != nil && *p.LeadTimeDays > 0 {
		return *p.LeadTimeDays
	}
	if c.cfg.DefaultLeadTimeDays > 0 {
		return c.cfg.DefaultLeadTimeDays
	}
	return DefaultLeadTimeDays
}

func (c *Calculator) serviceLevel(p *domain.ProductInfo) float64 {
	if p != nil && p.ServiceLevel != nil && *p.ServiceLevel > 0 {
		return *p.ServiceLevel
	}
	if c.cfg.DefaultServiceLevel > 0 {
		return c.cfg.DefaultServiceLevel
	}
	return DefaultServiceLevel
}

func (c *Calculator) orderCost() float64 {
	if c.cfg.DefaultOrderCost > 0 {
		return c.cfg.DefaultOrderCost
	}
	return DefaultOrderCost
}

func (c *Calculator) holdingCost(p *domain.ProductInfo) float64 {
	rate := c.cfg.HoldingCostRate
	if rate <= 0 {
		rate = DefaultHoldingRate
	}
	if p == nil || p.UnitPrice == nil {
		return 0
	}
	return rate * *p.UnitPrice
}

// Calculate derives a reorder suggestion for one inventory row from its
// demand forecast. The caller guarantees row.Product is non-nil.
func (c *Calculator) Calculate(row domain.InventoryRow, forecast domain.DemandForecast) domain.ReorderSuggestion {
	avgDaily := mean(forecast.Predictions)
	sigma := stdDev(forecast.Predictions)

	leadTime := c.leadTimeDays(row.Product)
	serviceLevel := c.serviceLevel(row.Product)
	z := ZScore(serviceLevel)

	leadTimeDemand := avgDaily * float64(leadTime)
	safetyStock := z * sigma * math.Sqrt(float64(leadTime))
	reorderPoint := int(math.Ceil(leadTimeDemand + safetyStock))

	// EOQ = sqrt(2 x annual demand x order cost / holding cost). A zero
	// holding cost makes EOQ 0 by policy rather than dividing by zero.
	annualDemand := avgDaily * DaysPerYear
	holdingCost := c.holdingCost(row.Product)
	var eoq float64
	if holdingCost > 0 {
		eoq = math.Sqrt(2 * annualDemand * c.orderCost() / holdingCost)
	}

	return domain.ReorderSuggestion{
		ProductID:       row.ProductID,
		WarehouseID:     row.WarehouseID,
		CurrentStock:    row.Quantity,
		ReorderPoint:    reorderPoint,
		ReorderQuantity: int(math.Ceil(eoq)),
		SafetyStock:     int(math.Round(math.Max(0, safetyStock))),
		LeadTimeDays:    leadTime,
		Confidence:      forecast.Confidence,
		Reasoning:       reasoning(row.Quantity, reorderPoint, avgDaily, leadTime, serviceLevel),
	}
}

func reasoning(currentStock, reorderPoint int, avgDaily float64, leadTime int, serviceLevel float64) string {
	base := fmt.Sprintf(
		"Average daily demand is %.1f units; with a %d-day lead time at %.0f%% service level the reorder point is %d units.",
		avgDaily, leadTime, serviceLevel*100, reorderPoint,
	)

	daysUntil := 0.0
	if avgDaily > 0 && currentStock > reorderPoint {
		daysUntil = float64(currentStock-reorderPoint) / avgDaily
	}

	if daysUntil <= 0 {
		return base + fmt.Sprintf(" Current stock (%d) is at or below the reorder point: 0 days until reorder.", currentStock)
	}
	return base + fmt.Sprintf(" Current stock (%d) reaches the reorder point in about %.0f days.", currentStock, daysUntil)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
