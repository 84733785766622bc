// backend/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/restockly/backend/internal/api"
	"github.com/restockly/backend/internal/cache"
	"github.com/restockly/backend/internal/config"
	"github.com/restockly/backend/internal/engine"
	"github.com/restockly/backend/internal/engine/report"
	"github.com/restockly/backend/internal/engine/reorder"
	"github.com/restockly/backend/internal/events"
	"github.com/restockly/backend/internal/repository/postgres"
	"github.com/restockly/backend/internal/service"
	"github.com/restockly/backend/internal/storage"
	"github.com/restockly/backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	eng := engine.New(
		engine.Config{
			WorkerCount: cfg.Engine.WorkerCount,
			SKUTimeout:  time.Duration(cfg.Engine.SKUTimeoutSeconds) * time.Second,
		},
		nil,
		reorder.CalculatorConfig{DefaultLeadTimeDays: cfg.Engine.DefaultLeadTimeDays},
		report.Config{},
	)

	analysisCache, err := cache.NewAnalysisCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		analysisCache = cache.NewNoopAnalysisCache()
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize event publisher")
	}
	defer publisher.Close()

	opts := []service.Option{service.WithPublisher(publisher)}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("database unavailable, store-backed analysis disabled")
	} else {
		defer db.Close()
		opts = append(opts, service.WithSnapshotRepository(postgres.NewSnapshotRepository(db)))
	}

	if cfg.Storage.Enabled {
		archive, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		opts = append(opts, service.WithArchive(archive))
	}

	analysisService := service.NewAnalysisService(eng, analysisCache, opts...)

	router := api.NewRouter(&api.Services{AnalysisService: analysisService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
