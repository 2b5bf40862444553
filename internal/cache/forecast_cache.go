package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast"
	forecastScanBatchSize = 100
)

// ForecastCache holds computed demand forecasts for their 7-day expiry
// window so repeated dashboard loads don't recompute the ensemble.
type ForecastCache interface {
	Get(ctx context.Context, organizationID, productID, warehouseID string, horizonDays int) (domain.DemandForecast, bool, error)
	Set(ctx context.Context, organizationID string, forecast domain.DemandForecast) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, organizationID, productID, warehouseID string, horizonDays int) (domain.DemandForecast, bool, error) {
	key := buildForecastKey(organizationID, productID, warehouseID, horizonDays)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return domain.DemandForecast{}, false, nil
	}
	if err != nil {
		return domain.DemandForecast{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var forecast domain.DemandForecast
	if err := json.Unmarshal(payload, &forecast); err != nil {
		return domain.DemandForecast{}, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return forecast, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, organizationID string, forecast domain.DemandForecast) error {
	key := buildForecastKey(organizationID, forecast.ProductID, forecast.WarehouseID, forecast.HorizonDays)
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix+":", forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, organizationID, productID, warehouseID string, horizonDays int) (domain.DemandForecast, bool, error) {
	return domain.DemandForecast{}, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, organizationID string, forecast domain.DemandForecast) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(organizationID, productID, warehouseID string, horizonDays int) string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", forecastKeyPrefix, organizationID, productID, warehouseID, horizonDays)
}
