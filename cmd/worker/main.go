package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/truthsource/insight-service/internal/anomaly"
	"github.com/truthsource/insight-service/internal/cache"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/delivery"
	"github.com/truthsource/insight-service/internal/domain"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/reorder"
	"github.com/truthsource/insight-service/internal/repository/postgres"
	"github.com/truthsource/insight-service/internal/service"
	"github.com/truthsource/insight-service/internal/storage"
	"github.com/truthsource/insight-service/pkg/logger"
)

func main() {
	orgsFlag := flag.String("orgs", os.Getenv("WORKER_ORGANIZATIONS"), "Comma-separated organization IDs to process")
	interval := flag.Duration("interval", time.Hour, "Time between detection passes")
	scope := flag.String("scope", domain.ScopeAll, "Detection scope (all, inventory, orders, pricing)")
	healthAddr := flag.String("health-addr", ":8081", "Listen address for the health endpoint")
	flag.Parse()

	orgs := splitOrgs(*orgsFlag)
	if len(orgs) == 0 {
		log.Fatal("At least one organization ID is required (use -orgs or WORKER_ORGANIZATIONS)")
	}
	if _, ok := domain.ParseScope(*scope); !ok {
		log.Fatalf("Unknown scope: %s", *scope)
	}

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	store := postgres.NewDataStore(db)

	forecastCache := cache.NewNoopForecastCache()
	if cfg.Cache.Enabled {
		if redisCache, err := cache.NewForecastCache(cfg.Cache); err == nil {
			forecastCache = redisCache
		} else {
			logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		}
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		if archiveClient, err := storage.NewMinioClient(cfg.Archive); err == nil {
			archiver = storage.NewArchiver(archiveClient)
		} else {
			logger.Log.Warn().Err(err).Msg("Archive unavailable, continuing without it")
		}
	}

	engine := forecast.NewEngine(store, forecastCache, cfg.Analytics)
	insights := service.NewInsightService(
		engine,
		reorder.NewService(store, engine, cfg.Analytics),
		anomaly.NewDetector(store),
		delivery.NewPredictor(),
		archiver,
		cfg.Analytics,
	)

	// Health endpoint so orchestrators can probe the worker
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	go func() {
		logger.Log.Info().Str("addr", *healthAddr).Msg("Worker health endpoint listening")
		if err := http.ListenAndServe(*healthAddr, router); err != nil {
			logger.Log.Error().Err(err).Msg("Health endpoint stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runPass(ctx, insights, orgs, *scope)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Worker exiting")
			return
		case <-ticker.C:
			runPass(ctx, insights, orgs, *scope)
		}
	}
}

func runPass(ctx context.Context, insights *service.InsightService, orgs []string, scope string) {
	for _, org := range orgs {
		alerts, err := insights.DetectAnomalies(ctx, org, scope)
		if err != nil {
			logger.Log.Error().Err(err).Str("organization_id", org).Msg("Detection pass failed")
		} else {
			logger.Log.Info().Str("organization_id", org).Int("alerts", len(alerts)).Msg("Detection pass complete")
		}

		suggestions, err := insights.ReorderSuggestions(ctx, org)
		if err != nil {
			logger.Log.Error().Err(err).Str("organization_id", org).Msg("Reorder pass failed")
		} else {
			logger.Log.Info().Str("organization_id", org).Int("suggestions", len(suggestions)).Msg("Reorder pass complete")
		}
	}
}

func splitOrgs(raw string) []string {
	var orgs []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			orgs = append(orgs, trimmed)
		}
	}
	return orgs
}
