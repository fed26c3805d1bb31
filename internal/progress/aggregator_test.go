package progress

import (
	"testing"
	"time"

	"fetchq/internal/model"
)

func TestAggregate_NoActiveJobs(t *testing.T) {
	agg := NewAggregator()
	view := agg.Aggregate(Counts{}, time.Now())

	if view.ActiveCount != 0 || view.AveragePercent != 0 || view.CombinedRateMBs != 0 {
		t.Fatalf("empty aggregator produced non-zero view: %+v", view)
	}
	if view.ETA != ETACalculating {
		t.Fatalf("ETA without completions: got %q want %q", view.ETA, ETACalculating)
	}
}

func TestAggregate_AveragesLatestSamples(t *testing.T) {
	agg := NewAggregator()
	agg.Observe("a", model.ProgressSample{Percent: 20, Rate: "1MB/s"})
	agg.Observe("a", model.ProgressSample{Percent: 40, Rate: "2MB/s"})
	agg.Observe("b", model.ProgressSample{Percent: 60, Rate: "garbage"})

	view := agg.Aggregate(Counts{Processing: 2, Queued: 1}, time.Now())
	if view.ActiveCount != 2 {
		t.Fatalf("active count: got %d want 2", view.ActiveCount)
	}
	if view.AveragePercent != 50 {
		t.Fatalf("average percent: got %v want 50 (latest sample wins)", view.AveragePercent)
	}
	if view.CombinedRateMBs != 2 {
		t.Fatalf("combined rate: got %v want 2 (unparseable rates contribute 0)", view.CombinedRateMBs)
	}
}

func TestAggregate_Forget(t *testing.T) {
	agg := NewAggregator()
	agg.Observe("a", model.ProgressSample{Percent: 80})
	agg.Forget("a")

	view := agg.Aggregate(Counts{}, time.Now())
	if view.ActiveCount != 0 {
		t.Fatalf("forgotten job still counted: %+v", view)
	}
}

func TestAggregate_OverallProgressMonotonic(t *testing.T) {
	agg := NewAggregator()
	start := time.Now()

	// 4 jobs moving from queued into terminal states, total fixed.
	states := []Counts{
		{Queued: 4},
		{Queued: 3, Processing: 1},
		{Queued: 2, Processing: 1, Completed: 1},
		{Queued: 1, Processing: 1, Completed: 1, Failed: 1},
		{Completed: 3, Failed: 1},
	}
	prev := -1.0
	for _, c := range states {
		view := agg.Aggregate(c, start)
		if view.OverallProgress < prev {
			t.Fatalf("overall progress regressed: %v -> %v at %+v", prev, view.OverallProgress, c)
		}
		prev = view.OverallProgress
	}
	if prev != 1.0 {
		t.Fatalf("all-terminal progress: got %v want 1.0", prev)
	}
}

func TestAggregate_ETAAfterFirstCompletion(t *testing.T) {
	agg := NewAggregator()
	start := time.Now().Add(-10 * time.Second)

	view := agg.Aggregate(Counts{Queued: 2, Completed: 1}, start)
	if view.ETA == ETACalculating || view.ETA == "" {
		t.Fatalf("expected a concrete ETA once a job completed, got %q", view.ETA)
	}
}

func TestFormatETA(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{90 * time.Second, "01:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{-time.Minute, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatETA(tc.in); got != tc.want {
			t.Fatalf("FormatETA(%v): got %q want %q", tc.in, got, tc.want)
		}
	}
}
