package reorder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func calcConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		DefaultLeadTimeDays: 7,
		DefaultServiceLevel: 0.95,
		DefaultOrderCost:    50,
		HoldingCostRate:     0.25,
	}
}

func TestZScoreExactLevels(t *testing.T) {
	assert.Equal(t, 1.28, ZScore(0.90))
	assert.Equal(t, 1.65, ZScore(0.95))
	assert.Equal(t, 1.88, ZScore(0.97))
	assert.Equal(t, 2.33, ZScore(0.99))
}

func TestZScoreSnapsToNearest(t *testing.T) {
	assert.Equal(t, 1.65, ZScore(0.93))
	assert.Equal(t, 1.65, ZScore(0.955))
	assert.Equal(t, 1.28, ZScore(0.5))
	assert.Equal(t, 2.33, ZScore(0.999))
}

func TestZScoreTieResolvesToLowerLevel(t *testing.T) {
	// 0.925 is equidistant from 0.90 and 0.95; the rounded float64 distances
	// differ in the 17th digit, which the snap tolerance absorbs.
	assert.Equal(t, 1.28, ZScore(0.925))
	assert.Equal(t, 1.88, ZScore(0.98))
}

// alternating returns count predictions flipping between m-d and m+d, so the
// mean is m and the population standard deviation is exactly d.
func alternating(m, d float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		if i%2 == 0 {
			out[i] = m - d
		} else {
			out[i] = m + d
		}
	}
	return out
}

func TestCalculateSteadyDemand(t *testing.T) {
	c := NewCalculator(calcConfig())
	row := domain.InventoryRow{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    100,
		Product:     &domain.ProductInfo{ID: "p1", UnitPrice: floatPtr(20)},
	}
	forecast := domain.DemandForecast{
		Predictions: []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10},
		Confidence:  0.9,
	}

	s := c.Calculate(row, forecast)

	// LTD = 10 * 7 = 70, sigma = 0 so no safety stock.
	assert.Equal(t, 70, s.ReorderPoint)
	assert.Equal(t, 0, s.SafetyStock)
	assert.Equal(t, 7, s.LeadTimeDays)
	// EOQ = sqrt(2 * 3650 * 50 / 5) = 270.18, rounded up.
	assert.Equal(t, 271, s.ReorderQuantity)
	assert.Equal(t, 0.9, s.Confidence)
	assert.Contains(t, s.Reasoning, "about 3 days")
}

func TestCalculateVolatileDemand(t *testing.T) {
	c := NewCalculator(calcConfig())
	row := domain.InventoryRow{
		ProductID:   "p1",
		WarehouseID: "w1",
		Quantity:    50,
		Product:     &domain.ProductInfo{ID: "p1", UnitPrice: floatPtr(20)},
	}
	forecast := domain.DemandForecast{Predictions: alternating(10, 2, 14)}

	s := c.Calculate(row, forecast)

	// SS = 1.65 * 2 * sqrt(7) = 8.73, RP = ceil(70 + 8.73) = 79.
	assert.Equal(t, 79, s.ReorderPoint)
	assert.Equal(t, 9, s.SafetyStock)
	assert.True(t, strings.Contains(s.Reasoning, "0 days until reorder"))
}

func TestCalculateZeroHoldingCostZeroEOQ(t *testing.T) {
	c := NewCalculator(calcConfig())
	row := domain.InventoryRow{
		ProductID: "p1",
		Quantity:  10,
		Product:   &domain.ProductInfo{ID: "p1"}, // no unit price
	}
	forecast := domain.DemandForecast{Predictions: []float64{5, 5, 5}}

	s := c.Calculate(row, forecast)
	assert.Equal(t, 0, s.ReorderQuantity)
}

func TestCalculateProductOverrides(t *testing.T) {
	c := NewCalculator(calcConfig())
	row := domain.InventoryRow{
		ProductID: "p1",
		Quantity:  1000,
		Product: &domain.ProductInfo{
			ID:           "p1",
			LeadTimeDays: intPtr(14),
			ServiceLevel: floatPtr(0.99),
			UnitPrice:    floatPtr(10),
		},
	}
	forecast := domain.DemandForecast{Predictions: alternating(10, 2, 14)}

	s := c.Calculate(row, forecast)

	// LTD = 140, SS = 2.33 * 2 * sqrt(14) = 17.44, RP = 158.
	assert.Equal(t, 14, s.LeadTimeDays)
	assert.Equal(t, 158, s.ReorderPoint)
	assert.Equal(t, 17, s.SafetyStock)
}

func TestCalculateZeroDemand(t *testing.T) {
	c := NewCalculator(calcConfig())
	row := domain.InventoryRow{
		ProductID: "p1",
		Quantity:  5,
		Product:   &domain.ProductInfo{ID: "p1", UnitPrice: floatPtr(20)},
	}
	forecast := domain.DemandForecast{Predictions: []float64{0, 0, 0, 0}}

	s := c.Calculate(row, forecast)
	assert.Equal(t, 0, s.ReorderPoint)
	assert.Equal(t, 0, s.ReorderQuantity)
	assert.Equal(t, 0, s.SafetyStock)
}
