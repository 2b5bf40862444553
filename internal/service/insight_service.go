package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/truthsource/insight-service/internal/anomaly"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/delivery"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/reorder"
	"github.com/truthsource/insight-service/internal/storage"
)

// InsightService fronts the analytics core: demand forecasting, reorder
// planning, anomaly detection and delivery estimates.
type InsightService struct {
	engine    *forecast.Engine
	reorder   *reorder.Service
	detector  *anomaly.Detector
	predictor *delivery.Predictor
	archiver  *storage.Archiver
	cfg       config.AnalyticsConfig
}

// NewInsightService wires the analytics components together. archiver may be
// nil when the object-storage archive is disabled.
func NewInsightService(
	engine *forecast.Engine,
	reorderSvc *reorder.Service,
	detector *anomaly.Detector,
	predictor *delivery.Predictor,
	archiver *storage.Archiver,
	cfg config.AnalyticsConfig,
) *InsightService {
	return &InsightService{
		engine:    engine,
		reorder:   reorderSvc,
		detector:  detector,
		predictor: predictor,
		archiver:  archiver,
		cfg:       cfg,
	}
}

// ForecastDemand returns the demand forecast for one product at one
// warehouse. A non-positive horizon falls back to the configured default.
func (s *InsightService) ForecastDemand(ctx context.Context, organizationID, productID, warehouseID string, horizonDays int) (domain.DemandForecast, error) {
	if horizonDays <= 0 {
		horizonDays = s.cfg.ForecastHorizonDays
	}
	return s.engine.ForecastDemand(ctx, productID, warehouseID, organizationID, horizonDays)
}

// DetectAnomalies runs the detection rules for the given scope and archives
// the resulting insights when an archive is configured. Archive failures are
// logged and swallowed; detection results were already persisted.
func (s *InsightService) DetectAnomalies(ctx context.Context, organizationID, scope string) ([]domain.AnomalyAlert, error) {
	alerts, err := s.detector.DetectAnomalies(ctx, organizationID, scope)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil && len(alerts) > 0 {
		records, err := anomaly.Records(organizationID, alerts)
		if err == nil {
			_, err = s.archiver.ArchiveInsights(ctx, organizationID, time.Now().UTC(), records)
		}
		if err != nil {
			log.Warn().Err(err).Str("organization_id", organizationID).
				Msg("insight: archive write failed")
		}
	}

	return alerts, nil
}

// ReorderSuggestions calculates reorder points for every inventory row of
// the organization.
func (s *InsightService) ReorderSuggestions(ctx context.Context, organizationID string) ([]domain.ReorderSuggestion, error) {
	return s.reorder.CalculateReorderPoints(ctx, organizationID)
}

// ReorderOutcomes reports per-row results including skips.
func (s *InsightService) ReorderOutcomes(ctx context.Context, organizationID string) ([]reorder.Outcome, error) {
	return s.reorder.CalculateOutcomes(ctx, organizationID)
}

// PredictDelivery estimates the delivery date for a shipment.
func (s *InsightService) PredictDelivery(req delivery.Request) domain.DeliveryPrediction {
	return s.predictor.PredictDelivery(req)
}
