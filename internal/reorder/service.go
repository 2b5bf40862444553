package reorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// maxConcurrentForecasts bounds the per-call forecast fan-out.
	maxConcurrentForecasts = 8

	// suggestionExpiry matches the prediction store's 7-day retention.
	suggestionExpiry = 7 * 24 * time.Hour

	// SkipMissingProduct tags inventory rows without a linked product.
	SkipMissingProduct = "missing product reference"
)

// Outcome is the per-row result of a reorder pass: either a suggestion or a
// skip reason, so callers can audit skips without parsing logs.
type Outcome struct {
	ProductID   string                    `json:"product_id"`
	WarehouseID string                    `json:"warehouse_id"`
	Suggestion  *domain.ReorderSuggestion `json:"suggestion,omitempty"`
	SkipReason  string                    `json:"skip_reason,omitempty"`
}

func (o Outcome) Skipped() bool { return o.Suggestion == nil }

// Service recomputes reorder suggestions from fresh forecasts. It keeps no
// state between calls.
type Service struct {
	store      repository.DataStore
	engine     *forecast.Engine
	calculator *Calculator
	cfg        config.AnalyticsConfig

	now func() time.Time
}

func NewService(store repository.DataStore, engine *forecast.Engine, cfg config.AnalyticsConfig) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		calculator: NewCalculator(cfg),
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CalculateReorderPoints returns one suggestion per inventory row with a
// valid product reference. Rows missing a product are skipped by policy.
func (s *Service) CalculateReorderPoints(ctx context.Context, organizationID string) ([]domain.ReorderSuggestion, error) {
	outcomes, err := s.CalculateOutcomes(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	suggestions := make([]domain.ReorderSuggestion, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Suggestion != nil {
			suggestions = append(suggestions, *o.Suggestion)
		}
	}
	return suggestions, nil
}

// CalculateOutcomes is CalculateReorderPoints with skip visibility: every
// inventory row produces exactly one outcome, in inventory order.
// Per-(product,warehouse) units are independent, so they fan out
// concurrently and join at the end.
func (s *Service) CalculateOutcomes(ctx context.Context, organizationID string) ([]Outcome, error) {
	inventory, err := s.store.FetchInventory(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("calculate reorder points: %w", err)
	}

	horizon := s.cfg.ReorderHorizonDays
	if horizon <= 0 {
		horizon = 14
	}

	outcomes := make([]Outcome, len(inventory))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentForecasts)

	for i, row := range inventory {
		outcomes[i] = Outcome{ProductID: row.ProductID, WarehouseID: row.WarehouseID}

		if row.Product == nil {
			outcomes[i].SkipReason = SkipMissingProduct
			continue
		}

		g.Go(func() error {
			fc, err := s.engine.ForecastDemand(gctx, row.ProductID, row.WarehouseID, organizationID, horizon)
			if err != nil {
				return err
			}

			suggestion := s.calculator.Calculate(row, fc)
			outcomes[i].Suggestion = &suggestion

			// Self-contained write per unit; failure doesn't invalidate the
			// computed suggestion.
			if err := s.persist(gctx, organizationID, suggestion); err != nil {
				log.Warn().Err(err).
					Str("product_id", row.ProductID).
					Str("warehouse_id", row.WarehouseID).
					Msg("reorder: suggestion upsert failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calculate reorder points: %w", err)
	}

	skipped := 0
	for _, o := range outcomes {
		if o.Skipped() {
			skipped++
		}
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("organization_id", organizationID).
			Msg("reorder: inventory rows without product reference skipped")
	}

	return outcomes, nil
}

func (s *Service) persist(ctx context.Context, organizationID string, suggestion domain.ReorderSuggestion) error {
	payload, err := json.Marshal(suggestion)
	if err != nil {
		return fmt.Errorf("encode suggestion payload: %w", err)
	}

	now := s.now()
	day := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	return s.store.UpsertPrediction(ctx, domain.PredictionRecord{
		OrganizationID: organizationID,
		PredictionType: domain.PredictionTypeReorderPoint,
		EntityType:     domain.EntityTypeProduct,
		EntityID:       suggestion.ProductID,
		PredictionDate: day,
		Payload:        payload,
		ModelVersion:   domain.ModelVersion,
		ExpiresAt:      now.Add(suggestionExpiry),
	})
}
