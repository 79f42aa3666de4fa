package analytics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/timmy/applytrack/internal/domain"
)

func seriesFixture() ([]domain.Application, []domain.HistoryEvent) {
	apps := []domain.Application{
		app(1, "a", "Interview", "2024-01-01"),
		app(2, "b", "Applied", "2024-01-01"),
		app(3, "c", "Rejected", "2024-01-09"),
		app(4, "d", "Offer", "2024-02-12"),
		app(5, "e", "Applied", "2023-12-31"),
	}
	events := []domain.HistoryEvent{
		event(1, 1, "Applied", "2024-01-01"),
		event(2, 1, "Interview", "2024-01-06"),
		event(3, 2, "Applied", "2024-01-01"),
		event(4, 3, "Applied", "2024-01-09"),
		event(5, 3, "Rejected", "2024-01-30"),
		event(6, 4, "Applied", "2024-02-12"),
		event(7, 4, "Phone Screen", "2024-02-20"),
		event(8, 4, "Offer", "2024-03-20"),
		event(9, 5, "Applied", "2023-12-31"),
	}
	return apps, events
}

func TestCumulative(t *testing.T) {
	apps, _ := seriesFixture()

	want := []DailyCount{
		{Date: "2023-12-31", Count: 1, Cumulative: 1},
		{Date: "2024-01-01", Count: 2, Cumulative: 3},
		{Date: "2024-01-09", Count: 1, Cumulative: 4},
		{Date: "2024-02-12", Count: 1, Cumulative: 5},
	}
	if diff := cmp.Diff(want, Cumulative(apps)); diff != "" {
		t.Errorf("Cumulative() mismatch (-want +got):\n%s", diff)
	}
}

func TestPerWeek_UsesISOWeeks(t *testing.T) {
	apps, _ := seriesFixture()

	// 2023-12-31 is a Sunday and belongs to ISO week 2023-W52.
	want := []WeeklyCount{
		{Year: 2023, Week: 52, Label: "2023-W52", Count: 1},
		{Year: 2024, Week: 1, Label: "2024-W01", Count: 2},
		{Year: 2024, Week: 2, Label: "2024-W02", Count: 1},
		{Year: 2024, Week: 7, Label: "2024-W07", Count: 1},
	}
	if diff := cmp.Diff(want, PerWeek(apps)); diff != "" {
		t.Errorf("PerWeek() mismatch (-want +got):\n%s", diff)
	}
}

func TestInterviewRateByMonth(t *testing.T) {
	apps, events := seriesFixture()

	want := []MonthlyRate{
		{Month: "2023-12", Total: 1, Interviewed: 0, Rate: 0},
		{Month: "2024-01", Total: 3, Interviewed: 1, Rate: 100.0 / 3},
		{Month: "2024-02", Total: 1, Interviewed: 1, Rate: 100},
	}
	if diff := cmp.Diff(want, InterviewRateByMonth(apps, events)); diff != "" {
		t.Errorf("InterviewRateByMonth() mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseDistribution(t *testing.T) {
	apps, events := seriesFixture()

	// app1: 5 days, app3: 21 days, app4: 8 days (Phone Screen precedes Offer)
	want := []ResponseBucket{
		{Label: BucketUnderWeek, Count: 1},
		{Label: BucketOneToTwo, Count: 1},
		{Label: BucketTwoToFour, Count: 1},
		{Label: BucketMonthOrMore, Count: 0},
	}
	if diff := cmp.Diff(want, ResponseDistribution(apps, events)); diff != "" {
		t.Errorf("ResponseDistribution() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeTimeSeries_Empty(t *testing.T) {
	got := ComputeTimeSeries(nil, nil)

	if len(got.Cumulative) != 0 || len(got.PerWeek) != 0 || len(got.InterviewRateByMonth) != 0 {
		t.Errorf("expected empty series, got %+v", got)
	}
	if len(got.ResponseDistribution) != 4 {
		t.Errorf("ResponseDistribution has %d buckets, want 4", len(got.ResponseDistribution))
	}
}
