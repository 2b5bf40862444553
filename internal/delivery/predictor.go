package delivery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/truthsource/insight-service/internal/domain"
)

// Distance heuristic constants. The zip-prefix estimate is deliberately
// coarse: each prefix unit is roughly 50 miles, capped at a cross-country
// haul, with a 500-mile default when a zip can't be parsed.
const (
	MilesPerZipPrefixUnit = 50.0
	MaxEstimatedMiles     = 3000.0
	DefaultEstimatedMiles = 500.0
	AverageSpeedMph       = 50.0

	// milesPerExtraTransitDay adds one transit day per 1000 estimated miles.
	milesPerExtraTransitDay = 1000.0

	// conservativeOnTimeRate adds a buffer day for carriers below this rate.
	conservativeOnTimeRate = 0.90

	// DefaultConfidence applies when no carrier profile is matched.
	DefaultConfidence = 0.8
)

// Service level names.
const (
	ServiceStandard  = "standard"
	ServiceExpress   = "express"
	ServiceOvernight = "overnight"
)

// CarrierProfile holds observed performance for one carrier.
type CarrierProfile struct {
	DisplayName        string
	OnTimeRate         float64
	AverageTransitDays float64
	ServiceLevelDays   map[string]int
}

// carrierProfiles would normally come from carrier APIs or internal tracking
// data; these are the fleet baselines.
var carrierProfiles = map[string]CarrierProfile{
	"fedex": {
		DisplayName:        "FedEx",
		OnTimeRate:         0.92,
		AverageTransitDays: 3.2,
		ServiceLevelDays:   map[string]int{ServiceStandard: 4, ServiceExpress: 2, ServiceOvernight: 1},
	},
	"ups": {
		DisplayName:        "UPS",
		OnTimeRate:         0.89,
		AverageTransitDays: 3.5,
		ServiceLevelDays:   map[string]int{ServiceStandard: 4, ServiceExpress: 2, ServiceOvernight: 1},
	},
	"usps": {
		DisplayName:        "USPS",
		OnTimeRate:         0.85,
		AverageTransitDays: 4.1,
		ServiceLevelDays:   map[string]int{ServiceStandard: 5, ServiceExpress: 3, ServiceOvernight: 2},
	},
}

// fleetAverage is used when no carrier is specified or recognized.
var fleetAverage = CarrierProfile{
	DisplayName:        "",
	OnTimeRate:         0.89,
	AverageTransitDays: 3.6,
	ServiceLevelDays:   map[string]int{ServiceStandard: 4, ServiceExpress: 2, ServiceOvernight: 1},
}

// Request describes a shipment to estimate.
type Request struct {
	OriginWarehouseID string
	OriginZip         string
	Destination       domain.Address
	ProductIDs        []string
	Carrier           string
	ServiceLevel      string
}

// Predictor estimates delivery dates from carrier baselines and a coarse
// route distance. It keeps no state and needs no external data.
type Predictor struct {
	now func() time.Time
}

func NewPredictor() *Predictor {
	return &Predictor{now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (p *Predictor) WithClock(now func() time.Time) *Predictor {
	p.now = now
	return p
}

// PredictDelivery estimates the delivery date for a shipment. Estimates are
// conservative: long routes and weaker carriers stretch the base service
// level rather than shrinking it.
func (p *Predictor) PredictDelivery(req Request) domain.DeliveryPrediction {
	profile, known := lookupCarrier(req.Carrier)

	level := strings.ToLower(strings.TrimSpace(req.ServiceLevel))
	baseDays, ok := profile.ServiceLevelDays[level]
	if !ok {
		level = ServiceStandard
		baseDays = profile.ServiceLevelDays[ServiceStandard]
	}

	miles := EstimateDistance(req.OriginZip, req.Destination.Zip)

	transitDays := baseDays + int(miles/milesPerExtraTransitDay)
	if profile.OnTimeRate < conservativeOnTimeRate {
		transitDays++
	}

	confidence := DefaultConfidence
	if known {
		confidence = profile.OnTimeRate
	}

	factors := []string{
		fmt.Sprintf("Carrier baseline: %.0f%% on-time, %.1f average transit days", profile.OnTimeRate*100, profile.AverageTransitDays),
		fmt.Sprintf("Estimated route distance: %.0f miles (%.0f driving hours)", miles, miles/AverageSpeedMph),
		fmt.Sprintf("Service level: %s (%d base days)", level, baseDays),
		fmt.Sprintf("Shipment size: %d product(s)", len(req.ProductIDs)),
	}

	return domain.DeliveryPrediction{
		EstimatedDeliveryDate: p.now().AddDate(0, 0, transitDays),
		ConfidenceScore:       confidence,
		TransitDays:           transitDays,
		CarrierRecommendation: RecommendCarrier(),
		FactorsConsidered:     factors,
	}
}

// EstimateDistance approximates route miles from the first three digits of
// the origin and destination zips.
func EstimateDistance(originZip, destZip string) float64 {
	origin, err1 := zipPrefix(originZip)
	dest, err2 := zipPrefix(destZip)
	if err1 != nil || err2 != nil {
		return DefaultEstimatedMiles
	}

	diff := origin - dest
	if diff < 0 {
		diff = -diff
	}

	miles := float64(diff) * MilesPerZipPrefixUnit
	if miles > MaxEstimatedMiles {
		return MaxEstimatedMiles
	}
	return miles
}

// RecommendCarrier returns the carrier with the best on-time rate.
func RecommendCarrier() string {
	best := ""
	bestRate := -1.0
	for _, profile := range carrierProfiles {
		if profile.OnTimeRate > bestRate {
			best = profile.DisplayName
			bestRate = profile.OnTimeRate
		}
	}
	return best
}

func lookupCarrier(carrier string) (CarrierProfile, bool) {
	profile, ok := carrierProfiles[strings.ToLower(strings.TrimSpace(carrier))]
	if !ok {
		return fleetAverage, false
	}
	return profile, true
}

func zipPrefix(zip string) (int, error) {
	zip = strings.TrimSpace(zip)
	if len(zip) < 3 {
		return 0, fmt.Errorf("zip %q too short", zip)
	}
	return strconv.Atoi(zip[:3])
}
