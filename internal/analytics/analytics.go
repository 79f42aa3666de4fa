// Package analytics derives dashboard metrics from applications and their
// status history. Every function is a pure computation over the rows it is
// given; nothing is cached between calls.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/timmy/applytrack/internal/domain"
)

const (
	DefaultKeywordLimit    = 10
	DefaultTrendWindowDays = 30
)

// Trend directions.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// interviewStatuses mark an application as having reached the interview stage.
var interviewStatuses = map[string]bool{
	domain.StatusInterview: true,
	domain.StatusOffer:     true,
	domain.StatusAccepted:  true,
}

// nonSubstantive statuses never count as a response from the employer.
var nonSubstantive = map[string]bool{
	domain.StatusApplied:          true,
	domain.StatusWithdrawn:        true,
	domain.StatusOnlineAssessment: true,
}

// Options tunes the point-in-time stats.
type Options struct {
	KeywordLimit    int
	TrendWindowDays int
}

func (o Options) withDefaults() Options {
	if o.KeywordLimit <= 0 {
		o.KeywordLimit = DefaultKeywordLimit
	}
	if o.TrendWindowDays <= 0 {
		o.TrendWindowDays = DefaultTrendWindowDays
	}
	return o
}

// StatusCount is the number of applications currently at Status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// KeywordCount is how many titles contained Keyword.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Trend compares the weekly application rate of the current window with the
// window before it.
type Trend struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	Direction string  `json:"direction"`
}

// Stats is the point-in-time dashboard summary.
type Stats struct {
	Total              int            `json:"total"`
	StatusDistribution []StatusCount  `json:"status_distribution"`
	Keywords           []KeywordCount `json:"keywords"`
	InterviewRate      float64        `json:"interview_rate"`
	AvgResponseDays    *float64       `json:"avg_response_days"`
	WeeklyTrend        Trend          `json:"weekly_trend"`
}

// Compute builds the point-in-time stats for apps and their events as of now.
// Parameters:
//   - apps: every application.
//   - events: history events of those applications; events of unknown
//     applications are ignored.
//   - now: reference time for the weekly trend.
//   - opts: keyword limit and trend window; zero values take the defaults.
//
// Returns:
//   - Stats: the computed summary.
func Compute(apps []domain.Application, events []domain.HistoryEvent, now time.Time, opts Options) Stats {
	opts = opts.withDefaults()
	return Stats{
		Total:              len(apps),
		StatusDistribution: StatusDistribution(apps),
		Keywords:           Keywords(apps, opts.KeywordLimit),
		InterviewRate:      InterviewRate(apps, events),
		AvgResponseDays:    AverageResponseDays(apps, events),
		WeeklyTrend:        WeeklyTrend(apps, now, opts.TrendWindowDays),
	}
}

// StatusDistribution counts applications by current status, largest group
// first and ties by label.
func StatusDistribution(apps []domain.Application) []StatusCount {
	counts := make(map[string]int)
	for _, app := range apps {
		counts[app.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// InterviewRate is the percentage of applications with at least one event at
// Interview, Offer or Accepted. It is 0 when there are no applications.
func InterviewRate(apps []domain.Application, events []domain.HistoryEvent) float64 {
	if len(apps) == 0 {
		return 0
	}
	reached := interviewed(apps, events)
	return float64(len(reached)) * 100 / float64(len(apps))
}

// interviewed returns the ids of applications in apps that reached the
// interview stage through any history event.
func interviewed(apps []domain.Application, events []domain.HistoryEvent) map[int64]bool {
	known := make(map[int64]bool, len(apps))
	for _, app := range apps {
		known[app.ID] = true
	}
	reached := make(map[int64]bool)
	for _, e := range events {
		if known[e.ApplicationID] && interviewStatuses[e.Status] {
			reached[e.ApplicationID] = true
		}
	}
	return reached
}

// WeeklyTrend compares applications dated in the last windowDays with those
// of the window before, both expressed per week.
func WeeklyTrend(apps []domain.Application, now time.Time, windowDays int) Trend {
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}
	window := time.Duration(windowDays) * 24 * time.Hour
	currentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	var current, previous int
	for _, app := range apps {
		switch d := app.DateApplied; {
		case !d.Before(currentStart):
			current++
		case !d.Before(previousStart):
			previous++
		}
	}

	weeks := float64(windowDays) / 7
	trend := Trend{
		Current:   round1(float64(current) / weeks),
		Previous:  round1(float64(previous) / weeks),
		Direction: TrendNeutral,
	}
	switch {
	case current > previous:
		trend.Direction = TrendUp
	case current < previous:
		trend.Direction = TrendDown
	}
	return trend
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// calendarDays is the number of UTC calendar days from a to b.
func calendarDays(a, b time.Time) int {
	a = a.UTC()
	b = b.UTC()
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(db.Sub(da).Hours() / 24))
}
