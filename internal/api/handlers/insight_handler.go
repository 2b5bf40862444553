package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/truthsource/insight-service/internal/delivery"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/service"
)

type InsightHandler struct {
	service *service.InsightService
}

func NewInsightHandler(service *service.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

type forecastDemandRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	ProductID      string `json:"product_id" binding:"required"`
	WarehouseID    string `json:"warehouse_id" binding:"required"`
	HorizonDays    int    `json:"horizon_days"`
}

// ForecastDemand handles POST /api/v1/forecast/demand
func (h *InsightHandler) ForecastDemand(c *gin.Context) {
	var req forecastDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid forecast request: "+err.Error())
		return
	}

	forecast, err := h.service.ForecastDemand(c.Request.Context(), req.OrganizationID, req.ProductID, req.WarehouseID, req.HorizonDays)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to forecast demand: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, forecast)
}

type detectAnomaliesRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	Scope          string `json:"scope"`
}

// DetectAnomalies handles POST /api/v1/detect/anomalies
func (h *InsightHandler) DetectAnomalies(c *gin.Context) {
	var req detectAnomaliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid detection request: "+err.Error())
		return
	}

	scope, ok := domain.ParseScope(req.Scope)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unknown scope: "+req.Scope)
		return
	}

	alerts, err := h.service.DetectAnomalies(c.Request.Context(), req.OrganizationID, scope)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to detect anomalies: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"anomalies":    alerts,
		"count":        len(alerts),
		"generated_at": time.Now().UTC(),
	})
}

type predictDeliveryRequest struct {
	OriginWarehouseID string         `json:"origin_warehouse_id" binding:"required"`
	OriginZip         string         `json:"origin_zip"`
	Destination       domain.Address `json:"destination" binding:"required"`
	ProductIDs        []string       `json:"product_ids"`
	Carrier           string         `json:"carrier"`
	ServiceLevel      string         `json:"service_level"`
}

// PredictDelivery handles POST /api/v1/predict/delivery
func (h *InsightHandler) PredictDelivery(c *gin.Context) {
	var req predictDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid delivery request: "+err.Error())
		return
	}

	prediction := h.service.PredictDelivery(delivery.Request{
		OriginWarehouseID: req.OriginWarehouseID,
		OriginZip:         req.OriginZip,
		Destination:       req.Destination,
		ProductIDs:        req.ProductIDs,
		Carrier:           req.Carrier,
		ServiceLevel:      req.ServiceLevel,
	})

	c.JSON(http.StatusOK, prediction)
}

// ReorderSuggestions handles GET /api/v1/reorder/suggestions
func (h *InsightHandler) ReorderSuggestions(c *gin.Context) {
	organizationID := strings.TrimSpace(c.Query("organization_id"))
	if organizationID == "" {
		errorResponse(c, http.StatusBadRequest, "organization_id is required")
		return
	}

	suggestions, err := h.service.ReorderSuggestions(c.Request.Context(), organizationID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to calculate reorder points: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions":  suggestions,
		"count":        len(suggestions),
		"generated_at": time.Now().UTC(),
	})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
