package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/truthsource/insight-service/internal/cache"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/repository"
)

const (
	// MinEnsembleHistoryDays is the series length below which the ensemble
	// is skipped in favor of the moving-average fallback.
	MinEnsembleHistoryDays = 30

	// FallbackConfidence is the fixed confidence of the moving-average path.
	FallbackConfidence = 0.6
	// EmptyHistoryConfidence applies when no historical rows exist at all.
	EmptyHistoryConfidence = 0.5

	// Ensemble confidence is 1 - CV clamped to these bounds.
	ConfidenceFloor   = 0.5
	ConfidenceCeiling = 0.95

	// PredictionExpiry is how long persisted forecasts stay valid.
	PredictionExpiry = 7 * 24 * time.Hour
)

// Engine computes demand forecasts for (product, warehouse) pairs. It is
// request-scoped and stateless between calls; each call fetches its own
// history and persists its own output.
type Engine struct {
	store repository.DataStore
	cache cache.ForecastCache
	cfg   config.AnalyticsConfig

	rng *rand.Rand
	now func() time.Time
}

func NewEngine(store repository.DataStore, cacheImpl cache.ForecastCache, cfg config.AnalyticsConfig) *Engine {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &Engine{
		store: store,
		cache: cacheImpl,
		cfg:   cfg,
		rng:   rand.New(newLockedSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// WithSeed pins the noise source of the differenced-mean model so forecasts
// are reproducible. Returns the engine for chaining.
func (e *Engine) WithSeed(seed int64) *Engine {
	e.rng = rand.New(newLockedSource(seed))
	return e
}

// lockedSource serializes draws from the shared noise source. ForecastDemand
// is called from concurrent reorder fan-outs and math/rand sources are not
// goroutine-safe on their own.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func newLockedSource(seed int64) rand.Source {
	return &lockedSource{src: rand.NewSource(seed)}
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// WithClock overrides the time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ForecastDemand aggregates the trailing order history of one
// (product, warehouse) pair and projects demand horizonDays forward.
// Insufficient history is not an error: short series fall back to a flat
// moving-average forecast and an empty series yields a flat zero forecast.
func (e *Engine) ForecastDemand(ctx context.Context, productID, warehouseID, organizationID string, horizonDays int) (domain.DemandForecast, error) {
	if horizonDays <= 0 {
		horizonDays = e.cfg.ForecastHorizonDays
	}
	if horizonDays <= 0 {
		horizonDays = 30
	}

	if cached, ok, err := e.cache.Get(ctx, organizationID, productID, warehouseID, horizonDays); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("forecast: cache get failed")
	}

	historyDays := e.cfg.HistoryWindowDays
	if historyDays <= 0 {
		historyDays = 365
	}
	since := e.now().AddDate(0, 0, -historyDays)

	lines, err := e.store.FetchOrderLines(ctx, productID, warehouseID, since)
	if err != nil {
		return domain.DemandForecast{}, fmt.Errorf("forecast demand for product %s: %w", productID, err)
	}

	series := DailySeries(lines)

	forecast := domain.DemandForecast{
		ProductID:       productID,
		WarehouseID:     warehouseID,
		HorizonDays:     horizonDays,
		SeasonalFactors: MonthlyFactors(lines),
		GeneratedAt:     e.now(),
	}

	if len(series) < MinEnsembleHistoryDays {
		forecast.Method = domain.MethodMovingAverage
		forecast.Predictions = movingAverageForecast(series, horizonDays)
		if len(series) == 0 {
			forecast.Confidence = EmptyHistoryConfidence
		} else {
			forecast.Confidence = FallbackConfidence
		}
		return forecast, nil
	}

	forecast.Method = domain.MethodEnsemble
	forecast.Predictions = e.runEnsemble(series, horizonDays)
	forecast.Confidence = seriesConfidence(series)

	// Write-through to the prediction store; the forecast is still valid if
	// the write fails.
	if err := e.persist(ctx, organizationID, forecast); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("forecast: prediction upsert failed")
	}
	if err := e.cache.Set(ctx, organizationID, forecast); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("forecast: cache set failed")
	}

	return forecast, nil
}

// runEnsemble runs the three forecasters and averages them point-wise with
// equal weight, clamping at zero.
func (e *Engine) runEnsemble(series []float64, horizon int) []float64 {
	forecasters := []Forecaster{
		&differencedMeanForecaster{rng: e.rng},
		&exponentialSmoothingForecaster{alpha: smoothingAlpha},
		linearRegressionForecaster{},
	}

	combined := make([]float64, horizon)
	for _, f := range forecasters {
		predictions := f.Forecast(series, horizon)
		for i, v := range predictions {
			combined[i] += v
		}
	}

	for i := range combined {
		combined[i] /= float64(len(forecasters))
		if combined[i] < 0 {
			combined[i] = 0
		}
	}

	return combined
}

// seriesConfidence scores forecast confidence from the dispersion of the raw
// history: 1 - coefficient of variation, clamped to [0.5, 0.95]. A zero-mean
// series resolves to the floor instead of dividing by zero.
func seriesConfidence(series []float64) float64 {
	if mean(series) == 0 {
		return ConfidenceFloor
	}
	return clamp(1-coefficientOfVariation(series), ConfidenceFloor, ConfidenceCeiling)
}

func (e *Engine) persist(ctx context.Context, organizationID string, forecast domain.DemandForecast) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast payload: %w", err)
	}

	now := e.now()
	return e.store.UpsertPrediction(ctx, domain.PredictionRecord{
		OrganizationID: organizationID,
		PredictionType: domain.PredictionTypeDemandForecast,
		EntityType:     domain.EntityTypeProduct,
		EntityID:       forecast.ProductID,
		PredictionDate: truncateToDay(now),
		Payload:        payload,
		ModelVersion:   domain.ModelVersion,
		ExpiresAt:      now.Add(PredictionExpiry),
	})
}
