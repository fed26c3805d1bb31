package model

import "fmt"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusQueued: true,
	},
	StatusQueued: {
		StatusQueued:     true,
		StatusProcessing: true,
	},
	StatusProcessing: {
		StatusProcessing: true,
		StatusQueued:     true, // retry after a failed attempt, or shutdown reclassification
		StatusCompleted:  true,
		StatusFailed:     true,
	},
	// completed and failed are terminal
	StatusCompleted: {
		StatusCompleted: true,
	},
	StatusFailed: {
		StatusFailed: true,
	},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionJobStatus(job *Job, toStatus string) error {
	from := job.Status
	if !CanTransition(from, toStatus) {
		return fmt.Errorf("invalid job status transition: %q -> %q (job_id=%s)", from, toStatus, job.ID)
	}
	job.Status = toStatus
	return nil
}
