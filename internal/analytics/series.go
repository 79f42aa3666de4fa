package analytics

import (
	"fmt"
	"sort"

	"github.com/timmy/applytrack/internal/domain"
)

// DailyCount is the number of applications dated Date and the running total
// up to and including it.
type DailyCount struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// WeeklyCount is the number of applications dated in one ISO week.
type WeeklyCount struct {
	Year  int    `json:"year"`
	Week  int    `json:"week"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlyRate is the interview conversion of applications dated in one month.
type MonthlyRate struct {
	Month       string  `json:"month"`
	Total       int     `json:"total"`
	Interviewed int     `json:"interviewed"`
	Rate        float64 `json:"rate"`
}

// TimeSeries is the chart data of the analytics view.
type TimeSeries struct {
	Cumulative           []DailyCount     `json:"cumulative"`
	PerWeek              []WeeklyCount    `json:"per_week"`
	InterviewRateByMonth []MonthlyRate    `json:"interview_rate_by_month"`
	ResponseDistribution []ResponseBucket `json:"response_distribution"`
}

// ComputeTimeSeries builds every series over apps and their events.
func ComputeTimeSeries(apps []domain.Application, events []domain.HistoryEvent) TimeSeries {
	return TimeSeries{
		Cumulative:           Cumulative(apps),
		PerWeek:              PerWeek(apps),
		InterviewRateByMonth: InterviewRateByMonth(apps, events),
		ResponseDistribution: ResponseDistribution(apps, events),
	}
}

// Cumulative groups applications by UTC calendar date of date_applied,
// oldest first, with a running sum.
func Cumulative(apps []domain.Application) []DailyCount {
	counts := make(map[string]int)
	for _, app := range apps {
		counts[app.DateApplied.UTC().Format("2006-01-02")]++
	}

	out := make([]DailyCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	total := 0
	for i := range out {
		total += out[i].Count
		out[i].Cumulative = total
	}
	return out
}

// PerWeek groups applications by ISO year and week of date_applied.
func PerWeek(apps []domain.Application) []WeeklyCount {
	type key struct{ year, week int }
	counts := make(map[key]int)
	for _, app := range apps {
		y, w := app.DateApplied.UTC().ISOWeek()
		counts[key{y, w}]++
	}

	out := make([]WeeklyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, WeeklyCount{
			Year:  k.year,
			Week:  k.week,
			Label: fmt.Sprintf("%d-W%02d", k.year, k.week),
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	return out
}

// InterviewRateByMonth groups applications by month of date_applied and
// reports, per month, the percentage that reached the interview stage.
func InterviewRateByMonth(apps []domain.Application, events []domain.HistoryEvent) []MonthlyRate {
	reached := interviewed(apps, events)

	byMonth := make(map[string]*MonthlyRate)
	for _, app := range apps {
		month := app.DateApplied.UTC().Format("2006-01")
		m, ok := byMonth[month]
		if !ok {
			m = &MonthlyRate{Month: month}
			byMonth[month] = m
		}
		m.Total++
		if reached[app.ID] {
			m.Interviewed++
		}
	}

	out := make([]MonthlyRate, 0, len(byMonth))
	for _, m := range byMonth {
		m.Rate = float64(m.Interviewed) * 100 / float64(m.Total)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
