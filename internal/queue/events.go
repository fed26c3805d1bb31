package queue

import (
	"fetchq/internal/model"
	"fetchq/internal/progress"
)

// EventKind tags a scheduler lifecycle event.
type EventKind int

const (
	EventQueueChanged EventKind = iota
	EventJobStarted
	EventJobRetried
	EventJobCompleted
	EventJobFailed
	EventProgress
	EventAggregate
)

func (k EventKind) String() string {
	switch k {
	case EventQueueChanged:
		return "queue_changed"
	case EventJobStarted:
		return "job_started"
	case EventJobRetried:
		return "job_retried"
	case EventJobCompleted:
		return "job_completed"
	case EventJobFailed:
		return "job_failed"
	case EventProgress:
		return "progress"
	case EventAggregate:
		return "aggregate_progress"
	default:
		return "unknown"
	}
}

// Event is one scheduler lifecycle notification. Job is a copy taken at
// emission time; consumers never see live scheduler state.
type Event struct {
	Kind      EventKind
	Job       model.Job
	Err       string
	Sample    model.ProgressSample
	Counts    progress.Counts
	Aggregate progress.Aggregate
}
