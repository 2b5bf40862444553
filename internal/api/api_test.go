package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthsource/insight-service/internal/anomaly"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/delivery"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/reorder"
	"github.com/truthsource/insight-service/internal/service"
)

type fakeStore struct {
	lines     []domain.OrderLine
	inventory []domain.InventoryRow
}

func (f *fakeStore) FetchOrderLines(ctx context.Context, productID, warehouseID string, since time.Time) ([]domain.OrderLine, error) {
	return f.lines, nil
}

func (f *fakeStore) FetchInventory(ctx context.Context, organizationID string) ([]domain.InventoryRow, error) {
	return f.inventory, nil
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
	return nil
}

func (f *fakeStore) InsertInsights(ctx context.Context, records []domain.InsightRecord) error {
	return nil
}

func testRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := config.AnalyticsConfig{
		ForecastHorizonDays: 30,
		ReorderHorizonDays:  14,
		HistoryWindowDays:   365,
		DefaultLeadTimeDays: 7,
		DefaultServiceLevel: 0.95,
		DefaultOrderCost:    50,
		HoldingCostRate:     0.25,
	}
	engine := forecast.NewEngine(store, nil, cfg).WithSeed(1)
	insights := service.NewInsightService(
		engine,
		reorder.NewService(store, engine, cfg),
		anomaly.NewDetector(store),
		delivery.NewPredictor(),
		nil,
		cfg,
	)
	return NewRouter(insights, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), "1.0.0")
}

func TestForecastDemandEndpoint(t *testing.T) {
	router := testRouter(&fakeStore{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/forecast/demand",
		`{"organization_id":"org1","product_id":"p1","warehouse_id":"w1","horizon_days":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var forecast domain.DemandForecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forecast))
	assert.Equal(t, "p1", forecast.ProductID)
	assert.Equal(t, domain.MethodMovingAverage, forecast.Method)
	assert.Len(t, forecast.Predictions, 7)
}

func TestForecastDemandEndpointRejectsMissingFields(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodPost, "/api/v1/forecast/demand",
		`{"product_id":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectAnomaliesEndpoint(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodPost, "/api/v1/detect/anomalies",
		`{"organization_id":"org1","scope":"orders"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 0, payload.Count)
}

func TestDetectAnomaliesEndpointRejectsUnknownScope(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodPost, "/api/v1/detect/anomalies",
		`{"organization_id":"org1","scope":"finance"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictDeliveryEndpoint(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodPost, "/api/v1/predict/delivery",
		`{"origin_warehouse_id":"w1","origin_zip":"10001","destination":{"city":"NYC","state":"NY","zip":"10099"},"carrier":"fedex","service_level":"standard"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var prediction domain.DeliveryPrediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prediction))
	assert.Equal(t, 4, prediction.TransitDays)
	assert.Equal(t, "FedEx", prediction.CarrierRecommendation)
}

func TestReorderSuggestionsEndpoint(t *testing.T) {
	price := 20.0
	store := &fakeStore{
		inventory: []domain.InventoryRow{{
			ProductID:   "p1",
			WarehouseID: "w1",
			Quantity:    100,
			Product:     &domain.ProductInfo{ID: "p1", UnitPrice: &price, IsActive: true},
		}},
	}

	rec := doJSON(t, testRouter(store), http.MethodGet, "/api/v1/reorder/suggestions?organization_id=org1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Suggestions []domain.ReorderSuggestion `json:"suggestions"`
		Count       int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Suggestions, 1)
	assert.Equal(t, "p1", payload.Suggestions[0].ProductID)
}

func TestReorderSuggestionsEndpointRequiresOrganization(t *testing.T) {
	rec := doJSON(t, testRouter(&fakeStore{}), http.MethodGet, "/api/v1/reorder/suggestions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	parsed, allowAll := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", ""})
	assert.False(t, allowAll)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, parsed)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, allowAll)
}
