package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/repository"
)

// Detection policy constants. These are named so tests and operators can
// reason about them; they are not meant to vary per organization.
const (
	// AdjustmentSpikeThreshold flags any single adjustment strictly above
	// this absolute delta. AdjustmentCriticalThreshold escalates it.
	AdjustmentSpikeThreshold    = 100.0
	AdjustmentCriticalThreshold = 500.0

	// FrequentAdjustmentCount is the per-(product,warehouse) adjustment count
	// within FrequentAdjustmentWindowDays above which a pattern alert fires.
	FrequentAdjustmentCount      = 5
	FrequentAdjustmentWindowDays = 7

	// ExcessMonthsOfSupply is the months-of-supply ceiling; stock with no
	// sales in the demand window reports InfiniteMonthsSentinel months.
	ExcessMonthsOfSupply     = 12.0
	InfiniteMonthsSentinel   = 999.0
	DemandTrailingWindowDays = 90

	// OrderVolumeSigmaThreshold is the z-distance from the trailing mean at
	// which today's order count is anomalous. Drops additionally require the
	// baseline mean to exceed OrderDropMinimumMean.
	OrderVolumeSigmaThreshold = 2.0
	OrderDropMinimumMean      = 5.0
	OrderBaselineWindowDays   = 30

	// LargeOrderTotal flags any single order above this total.
	LargeOrderTotal = 10000.0

	// PriceVolatilityChangeCount is the per-product price change count within
	// PriceVolatilityWindowDays above which volatility is flagged.
	PriceVolatilityChangeCount = 3
	PriceVolatilityWindowDays  = 7

	// LargePriceChangeRatio flags a consecutive price move beyond 20% in either direction.
	LargePriceChangeRatio = 0.20

	// alertExpiry matches the insight store's retention contract.
	alertExpiry = 7 * 24 * time.Hour
)

// Fixed per-rule confidences: deterministic rules are near-certain,
// statistical ones less so.
const (
	ruleConfidence        = 0.95
	statisticalConfidence = 0.8
)

// Detector scans current data for statistical outliers and rule-based red
// flags. It is a pure function of the fetched state: repeated passes over
// unchanged data produce the same alert content (ids differ per invocation).
type Detector struct {
	store repository.DataStore

	now   func() time.Time
	newID func() string
}

func NewDetector(store repository.DataStore) *Detector {
	return &Detector{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the time source. Intended for tests.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// DetectAnomalies runs the rule set for the requested scope. With ScopeAll,
// categories are evaluated independently: a fetch failure in one category is
// logged and the others still run.
func (d *Detector) DetectAnomalies(ctx context.Context, organizationID, scope string) ([]domain.AnomalyAlert, error) {
	resolved, ok := domain.ParseScope(scope)
	if !ok {
		return nil, fmt.Errorf("unknown anomaly scope %q", scope)
	}

	type category struct {
		name string
		run  func(context.Context, string) ([]domain.AnomalyAlert, error)
	}

	var categories []category
	if resolved == domain.ScopeAll || resolved == domain.ScopeInventory {
		categories = append(categories, category{domain.ScopeInventory, d.detectInventory})
	}
	if resolved == domain.ScopeAll || resolved == domain.ScopeOrders {
		categories = append(categories, category{domain.ScopeOrders, d.detectOrders})
	}
	if resolved == domain.ScopeAll || resolved == domain.ScopePricing {
		categories = append(categories, category{domain.ScopePricing, d.detectPricing})
	}

	var alerts []domain.AnomalyAlert
	for _, cat := range categories {
		found, err := cat.run(ctx, organizationID)
		if err != nil {
			if resolved != domain.ScopeAll {
				return nil, fmt.Errorf("detect %s anomalies: %w", cat.name, err)
			}
			log.Warn().Err(err).Str("category", cat.name).
				Str("organization_id", organizationID).
				Msg("anomaly: category detection failed, continuing")
			continue
		}
		alerts = append(alerts, found...)
	}

	if err := d.persist(ctx, organizationID, alerts); err != nil {
		log.Warn().Err(err).Str("organization_id", organizationID).
			Msg("anomaly: insight write failed")
	}

	return alerts, nil
}

func (d *Detector) newAlert(alertType, severity, title, description string, confidence float64, entities []domain.RelatedEntity, actions []string) domain.AnomalyAlert {
	return domain.AnomalyAlert{
		ID:               d.newID(),
		Type:             alertType,
		Severity:         severity,
		Title:            title,
		Description:      description,
		DetectedAt:       d.now(),
		Confidence:       confidence,
		RelatedEntities:  entities,
		SuggestedActions: actions,
	}
}

func (d *Detector) persist(ctx context.Context, organizationID string, alerts []domain.AnomalyAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	records, err := Records(organizationID, alerts)
	if err != nil {
		return err
	}
	return d.store.InsertInsights(ctx, records)
}

// Records converts alerts into the insight rows the store and archive keep.
func Records(organizationID string, alerts []domain.AnomalyAlert) ([]domain.InsightRecord, error) {
	records := make([]domain.InsightRecord, 0, len(alerts))
	for _, alert := range alerts {
		payload, err := json.Marshal(alert)
		if err != nil {
			return nil, fmt.Errorf("encode alert payload: %w", err)
		}
		records = append(records, domain.InsightRecord{
			ID:             alert.ID,
			OrganizationID: organizationID,
			Type:           alert.Type,
			Severity:       alert.Severity,
			Title:          alert.Title,
			Description:    alert.Description,
			Payload:        payload,
			DetectedAt:     alert.DetectedAt,
			ExpiresAt:      alert.DetectedAt.Add(alertExpiry),
		})
	}
	return records, nil
}
