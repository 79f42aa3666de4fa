package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/applytrack/internal/api"
	"github.com/timmy/applytrack/internal/config"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
	"github.com/timmy/applytrack/internal/service"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	matchMode, err := domain.ParseMatchMode(cfg.Import.MatchMode)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid import configuration")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	// Initialize repositories
	appRepo := repository.NewApplicationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	jobRepo := repository.NewImportJobRepository(db)

	// Initialize services
	services := &api.Services{
		Applications: service.NewApplicationService(appRepo, appLogger),
		Analytics: service.NewAnalyticsService(appRepo, appLogger, &service.AnalyticsConfig{
			KeywordLimit:    cfg.Analytics.KeywordLimit,
			TrendWindowDays: cfg.Analytics.TrendWindowDays,
		}),
		Imports: service.NewImportService(appRepo, jobRepo, appLogger, &service.ImportConfig{
			MatchMode: matchMode,
			BatchSize: cfg.Import.BatchSize,
		}),
		Catalog: service.NewStatusCatalogService(settingsRepo, appRepo, appLogger),
		Ping:    sqlDB.PingContext,
	}

	router := api.SetupRouter(services, appLogger, api.RouterConfig{
		Mode:          cfg.Server.Mode,
		CORS:          cfg.Server.CORS,
		ActivityLimit: cfg.Analytics.ActivityLimit,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":   cfg.Server.Port,
			"mode":   cfg.Server.Mode,
			"driver": cfg.Database.Driver,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
