// Package progress folds per-job progress samples into one aggregate view:
// mean percent across active jobs, combined throughput, overall completion
// ratio, and a coarse ETA extrapolated from completion pace.
package progress

import (
	"fmt"
	"sync"
	"time"

	"fetchq/internal/model"
)

// ETACalculating is returned until at least one job has completed; an
// estimate from zero samples is meaningless.
const ETACalculating = "calculating"

// Counts is the scheduler's per-state bookkeeping at aggregation time.
type Counts struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

func (c Counts) total() int {
	return c.Queued + c.Processing + c.Completed + c.Failed
}

// Aggregate is the derived, non-persisted view over all in-flight jobs.
type Aggregate struct {
	AveragePercent  float64 `json:"average_percent"`
	ActiveCount     int     `json:"active_count"`
	CombinedRateMBs float64 `json:"combined_rate_mb_s"`
	OverallProgress float64 `json:"overall_progress"` // 0.0 to 1.0
	ETA             string  `json:"eta"`
}

// Aggregator keeps the latest sample per processing job. Samples are already
// throttled at the source; the aggregator always reflects the newest one.
type Aggregator struct {
	mu      sync.Mutex
	samples map[string]model.ProgressSample
}

func NewAggregator() *Aggregator {
	return &Aggregator{samples: make(map[string]model.ProgressSample)}
}

// Observe records the latest sample for a processing job.
func (a *Aggregator) Observe(jobID string, sample model.ProgressSample) {
	a.mu.Lock()
	a.samples[jobID] = sample
	a.mu.Unlock()
}

// Forget drops a job's sample once its attempt resolved.
func (a *Aggregator) Forget(jobID string) {
	a.mu.Lock()
	delete(a.samples, jobID)
	a.mu.Unlock()
}

// Aggregate derives the combined view from the recorded samples and the
// scheduler's counts. startedAt is the scheduler session start.
func (a *Aggregator) Aggregate(counts Counts, startedAt time.Time) Aggregate {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := Aggregate{ActiveCount: len(a.samples), ETA: ETACalculating}
	for _, s := range a.samples {
		out.AveragePercent += s.Percent
		out.CombinedRateMBs += ParseRateMBs(s.Rate)
	}
	if out.ActiveCount > 0 {
		out.AveragePercent /= float64(out.ActiveCount)
	}

	if total := counts.total(); total > 0 {
		out.OverallProgress = float64(counts.Completed+counts.Failed) / float64(total)
	}

	if counts.Completed > 0 {
		perItem := time.Since(startedAt) / time.Duration(counts.Completed)
		remaining := counts.Queued + counts.Processing
		out.ETA = FormatETA(perItem * time.Duration(remaining))
	}
	return out
}

// FormatETA renders a duration as mm:ss, or hh:mm:ss past the hour.
func FormatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
