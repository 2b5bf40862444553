package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/truthsource/insight-service/internal/anomaly"
	"github.com/truthsource/insight-service/internal/api"
	"github.com/truthsource/insight-service/internal/cache"
	"github.com/truthsource/insight-service/internal/config"
	"github.com/truthsource/insight-service/internal/delivery"
	"github.com/truthsource/insight-service/internal/forecast"
	"github.com/truthsource/insight-service/internal/reorder"
	"github.com/truthsource/insight-service/internal/repository/postgres"
	"github.com/truthsource/insight-service/internal/service"
	"github.com/truthsource/insight-service/internal/storage"
	"github.com/truthsource/insight-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	store := postgres.NewDataStore(db)

	// Initialize forecast cache
	forecastCache := cache.NewNoopForecastCache()
	if cfg.Cache.Enabled {
		forecastCache, err = cache.NewForecastCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
			forecastCache = cache.NewNoopForecastCache()
		}
	}

	// Initialize insight archive
	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		archiveClient, err := storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Archive unavailable, continuing without it")
		} else {
			archiver = storage.NewArchiver(archiveClient)
		}
	}

	// Initialize services
	engine := forecast.NewEngine(store, forecastCache, cfg.Analytics)
	insights := service.NewInsightService(
		engine,
		reorder.NewService(store, engine, cfg.Analytics),
		anomaly.NewDetector(store),
		delivery.NewPredictor(),
		archiver,
		cfg.Analytics,
	)

	// Initialize HTTP server
	router := api.NewRouter(insights, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
