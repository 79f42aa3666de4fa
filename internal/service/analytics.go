package service

import (
	"context"
	"time"

	"github.com/timmy/applytrack/internal/analytics"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/repository"
)

// AnalyticsConfig holds configuration for the analytics service.
type AnalyticsConfig struct {
	KeywordLimit    int
	TrendWindowDays int
}

// AnalyticsService recomputes dashboard metrics from the record store on
// every call.
type AnalyticsService struct {
	repo   *repository.ApplicationRepository
	logger *logger.Logger
	opts   analytics.Options
}

// NewAnalyticsService creates a new analytics service.
// Parameters:
//   - repo: record store to read snapshots from; its clock is the reference time.
//   - log: logger instance.
//   - cfg: keyword limit and trend window; nil uses the defaults.
//
// Returns:
//   - *AnalyticsService: initialized analytics service.
func NewAnalyticsService(repo *repository.ApplicationRepository, log *logger.Logger, cfg *AnalyticsConfig) *AnalyticsService {
	var opts analytics.Options
	if cfg != nil {
		opts = analytics.Options{
			KeywordLimit:    cfg.KeywordLimit,
			TrendWindowDays: cfg.TrendWindowDays,
		}
	}
	return &AnalyticsService{repo: repo, logger: log, opts: opts}
}

func (s *AnalyticsService) log(ctx context.Context) *logger.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

// Stats returns the point-in-time summary.
func (s *AnalyticsService) Stats(ctx context.Context) (*analytics.Stats, error) {
	start := time.Now()
	apps, events, err := s.repo.Snapshot(ctx)
	if err != nil {
		s.log(ctx).WithError(err).Error("Failed to read snapshot for stats")
		return nil, err
	}

	stats := analytics.Compute(apps, events, s.repo.Now(), s.opts)

	logger.With(logger.Fields{logger.FieldComponent: "analytics"}).
		WithCount(stats.Total).
		WithDuration(time.Since(start).Milliseconds()).
		Debug(s.log(ctx).WithContext(ctx), "Stats computed")
	return &stats, nil
}

// TimeSeries returns the chart series.
func (s *AnalyticsService) TimeSeries(ctx context.Context) (*analytics.TimeSeries, error) {
	apps, events, err := s.repo.Snapshot(ctx)
	if err != nil {
		s.log(ctx).WithError(err).Error("Failed to read snapshot for time series")
		return nil, err
	}
	series := analytics.ComputeTimeSeries(apps, events)
	return &series, nil
}
