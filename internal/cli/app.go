package cli

import (
	"fmt"
	"io"

	"github.com/timmy/applytrack/internal/config"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
	"github.com/timmy/applytrack/internal/service"
	"github.com/timmy/applytrack/internal/storage"
	"gorm.io/gorm"
)

// app is the set of services a command runs against.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *gorm.DB
	imports   *service.ImportService
	analytics *service.AnalyticsService
	catalog   *service.StatusCatalogService
}

// openApp loads configuration and opens the database. Logs go to logOut so
// they never mix with command output.
func openApp(opts *RootOptions, logOut io.Writer) (*app, error) {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(&logger.Config{
		Level:       level,
		Format:      "text",
		Output:      logOut,
		ServiceName: "trackctl",
	})
	logger.SetDefaultLogger(log)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	matchMode, err := domain.ParseMatchMode(cfg.Import.MatchMode)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid import configuration", err)
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	apps := repository.NewApplicationRepository(db)
	return &app{
		cfg: cfg,
		log: log,
		db:  db,
		imports: service.NewImportService(apps, repository.NewImportJobRepository(db), log, &service.ImportConfig{
			MatchMode: matchMode,
			BatchSize: cfg.Import.BatchSize,
		}),
		analytics: service.NewAnalyticsService(apps, log, &service.AnalyticsConfig{
			KeywordLimit:    cfg.Analytics.KeywordLimit,
			TrendWindowDays: cfg.Analytics.TrendWindowDays,
		}),
		catalog: service.NewStatusCatalogService(repository.NewSettingsRepository(db), apps, log),
	}, nil
}

// objectStore builds the object storage client, failing when none is configured.
func (a *app) objectStore() (storage.ObjectStorage, error) {
	if !a.cfg.Storage.Enabled() {
		return nil, NewExitError(ExitCommandError, "object storage is not configured (storage.endpoint and storage.bucket)")
	}
	store, err := storage.NewStorage(storage.FromConfig(&a.cfg.Storage))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialize storage", err)
	}
	return store, nil
}

func (a *app) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
