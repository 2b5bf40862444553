package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
)

// fakeStore serves canned order lines and records prediction writes.
type fakeStore struct {
	lines       []domain.OrderLine
	linesErr    error
	predictions []domain.PredictionRecord
	upsertErr   error
}

func (f *fakeStore) FetchOrderLines(ctx context.Context, productID, warehouseID string, since time.Time) ([]domain.OrderLine, error) {
	return f.lines, f.linesErr
}

func (f *fakeStore) FetchInventory(ctx context.Context, organizationID string) ([]domain.InventoryRow, error) {
	return nil, nil
}

func (f *fakeStore) FetchRecentAdjustments(ctx context.Context, organizationID string, since time.Time) ([]domain.Adjustment, error) {
	return nil, nil
}

func (f *fakeStore) FetchRecentOrders(ctx context.Context, organizationID string, since time.Time) ([]domain.OrderSummary, error) {
	return nil, nil
}

func (f *fakeStore) FetchRecentPriceChanges(ctx context.Context, organizationID string, since time.Time) ([]domain.PriceChange, error) {
	return nil, nil
}

func (f *fakeStore) UpsertPrediction(ctx context.Context, record domain.PredictionRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.predictions = append(f.predictions, record)
	return nil
}

func (f *fakeStore) InsertInsights(ctx context.Context, records []domain.InsightRecord) error {
	return nil
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		ForecastHorizonDays: 30,
		ReorderHorizonDays:  14,
		HistoryWindowDays:   365,
		DefaultLeadTimeDays: 7,
		DefaultServiceLevel: 0.95,
		DefaultOrderCost:    50,
		HoldingCostRate:     0.25,
	}
}

// dailyLines builds count consecutive days of history ending yesterday.
func dailyLines(now time.Time, count int, quantity func(i int) float64) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, domain.OrderLine{
			Quantity:  quantity(i),
			CreatedAt: now.AddDate(0, 0, -count+i),
		})
	}
	return lines
}

func TestForecastDemandEmptyHistory(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1)

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 10)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodMovingAverage, forecast.Method)
	assert.Equal(t, EmptyHistoryConfidence, forecast.Confidence)
	require.Len(t, forecast.Predictions, 10)
	for _, v := range forecast.Predictions {
		assert.Equal(t, 0.0, v)
	}
}

func TestForecastDemandShortHistoryUsesMovingAverage(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{lines: dailyLines(now, 29, func(i int) float64 { return 4 })}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 14)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodMovingAverage, forecast.Method)
	assert.Equal(t, FallbackConfidence, forecast.Confidence)
	require.Len(t, forecast.Predictions, 14)
	assert.InDelta(t, 4.0, forecast.Predictions[0], 1e-9)
	assert.Empty(t, store.predictions, "fallback forecasts are not persisted")
}

func TestForecastDemandEnsembleAtThirtyDays(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{lines: dailyLines(now, 30, func(i int) float64 { return 10 })}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 14)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodEnsemble, forecast.Method)
	require.Len(t, forecast.Predictions, 14)
	for _, v := range forecast.Predictions {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestForecastDemandConstantSeriesHighConfidence(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{lines: dailyLines(now, 60, func(i int) float64 { return 10 })}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	require.NoError(t, err)

	// Zero dispersion caps confidence at the ceiling.
	assert.Equal(t, ConfidenceCeiling, forecast.Confidence)
}

func TestForecastDemandConfidenceBounds(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	// Highly volatile history drives CV well above 0.5.
	store := &fakeStore{lines: dailyLines(now, 40, func(i int) float64 {
		if i%7 == 0 {
			return 200
		}
		return 0
	})}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, forecast.Confidence, ConfidenceFloor)
	assert.LessOrEqual(t, forecast.Confidence, ConfidenceCeiling)
	assert.Equal(t, ConfidenceFloor, forecast.Confidence)
}

func TestForecastDemandPersistsEnsembleResult(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{lines: dailyLines(now, 45, func(i int) float64 { return 5 })}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	_, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	require.NoError(t, err)

	require.Len(t, store.predictions, 1)
	record := store.predictions[0]
	assert.Equal(t, "org1", record.OrganizationID)
	assert.Equal(t, domain.PredictionTypeDemandForecast, record.PredictionType)
	assert.Equal(t, domain.EntityTypeProduct, record.EntityType)
	assert.Equal(t, "p1", record.EntityID)
	assert.Equal(t, domain.ModelVersion, record.ModelVersion)
	assert.Equal(t, now.Add(PredictionExpiry), record.ExpiresAt)
}

func TestForecastDemandSurvivesPersistFailure(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		lines:     dailyLines(now, 45, func(i int) float64 { return 5 }),
		upsertErr: errors.New("db down"),
	}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodEnsemble, forecast.Method)
}

func TestForecastDemandPropagatesFetchError(t *testing.T) {
	store := &fakeStore{linesErr: errors.New("connection refused")}
	engine := NewEngine(store, nil, testAnalyticsConfig())

	_, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	assert.Error(t, err)
}

func TestForecastDemandDefaultHorizon(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, nil, testAnalyticsConfig())

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 0)
	require.NoError(t, err)
	assert.Len(t, forecast.Predictions, 30)
	assert.Equal(t, 30, forecast.HorizonDays)
}

func TestForecastDemandSeasonalFactors(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{lines: dailyLines(now, 45, func(i int) float64 { return 5 })}
	engine := NewEngine(store, nil, testAnalyticsConfig()).WithSeed(1).WithClock(func() time.Time { return now })

	forecast, err := engine.ForecastDemand(context.Background(), "p1", "w1", "org1", 7)
	require.NoError(t, err)
	require.Len(t, forecast.SeasonalFactors, 12)
	// Months absent from the 45-day window stay neutral.
	assert.InDelta(t, 1.0, forecast.SeasonalFactors[12], 1e-9)
}
