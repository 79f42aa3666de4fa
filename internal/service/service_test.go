package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/timmy/applytrack/internal/config"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	clock    *testClock
	repo     *repository.ApplicationRepository
	settings *repository.SettingsRepository
	jobs     *repository.ImportJobRepository
	log      *logger.Logger
	logs     *bytes.Buffer
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "service.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := &testClock{now: day("2024-03-01")}
	logs := &bytes.Buffer{}
	return &testEnv{
		db:       db,
		clock:    clock,
		repo:     repository.NewApplicationRepository(db).WithClock(clock.Now),
		settings: repository.NewSettingsRepository(db),
		jobs:     repository.NewImportJobRepository(db),
		log:      logger.New(&logger.Config{Level: "debug", Format: "json", Output: logs}),
		logs:     logs,
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

var ctx = context.Background()
