package analytics

import (
	"sort"

	"github.com/timmy/applytrack/internal/domain"
)

// Response-time bucket labels, in display order.
const (
	BucketUnderWeek   = "<7"
	BucketOneToTwo    = "7-13"
	BucketTwoToFour   = "14-29"
	BucketMonthOrMore = ">=30"
)

// ResponseBucket counts applications whose first response fell in Label.
type ResponseBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// responseDays returns, per application that has one, the calendar days from
// its applied date to its first substantive history event. The first event is
// the earliest by date, ties broken by id. Negative gaps count as 0.
func responseDays(apps []domain.Application, events []domain.HistoryEvent) []int {
	sorted := make([]domain.HistoryEvent, 0, len(events))
	for _, e := range events {
		if !nonSubstantive[e.Status] {
			sorted = append(sorted, e)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	first := make(map[int64]domain.HistoryEvent)
	for _, e := range sorted {
		if _, ok := first[e.ApplicationID]; !ok {
			first[e.ApplicationID] = e
		}
	}

	var days []int
	for _, app := range apps {
		e, ok := first[app.ID]
		if !ok {
			continue
		}
		d := calendarDays(app.DateApplied, e.Date)
		if d < 0 {
			d = 0
		}
		days = append(days, d)
	}
	return days
}

// AverageResponseDays is the mean number of days to a first substantive
// response over the applications that received one, or nil if none did.
func AverageResponseDays(apps []domain.Application, events []domain.HistoryEvent) *float64 {
	days := responseDays(apps, events)
	if len(days) == 0 {
		return nil
	}
	sum := 0
	for _, d := range days {
		sum += d
	}
	avg := float64(sum) / float64(len(days))
	return &avg
}

// ResponseDistribution buckets the first-response delays. All four buckets are
// always present.
func ResponseDistribution(apps []domain.Application, events []domain.HistoryEvent) []ResponseBucket {
	buckets := []ResponseBucket{
		{Label: BucketUnderWeek},
		{Label: BucketOneToTwo},
		{Label: BucketTwoToFour},
		{Label: BucketMonthOrMore},
	}
	for _, d := range responseDays(apps, events) {
		switch {
		case d < 7:
			buckets[0].Count++
		case d < 14:
			buckets[1].Count++
		case d < 30:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}
	return buckets
}
