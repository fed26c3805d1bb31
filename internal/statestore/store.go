// Package statestore persists the scheduler's snapshot so a crash or restart
// resumes in-flight work. Persistence is best-effort: a lost or corrupt state
// file is a cold start, never a scheduler failure.
package statestore

import (
	"fetchq/internal/model"
)

// Store serializes and restores scheduler snapshots.
type Store interface {
	// Save writes the snapshot durably. Callers pass an already-copied
	// snapshot; failures are returned for logging, never escalated.
	Save(snap model.Snapshot) error

	// Load restores the last snapshot. Missing or unreadable state yields an
	// empty snapshot. Jobs persisted while processing come back as queued: an
	// in-flight attempt cannot survive a restart and must be retried.
	Load() model.Snapshot
}

// normalizeLoaded reclassifies interrupted jobs and drops anything terminal
// that leaked into the queue list.
func normalizeLoaded(snap model.Snapshot) model.Snapshot {
	queue := make([]model.Job, 0, len(snap.Queue))
	for _, job := range snap.Queue {
		if model.IsTerminal(job.Status) {
			continue
		}
		if job.Status == model.StatusProcessing {
			_ = model.TransitionJobStatus(&job, model.StatusQueued)
			job.StartedAt = ""
			job.Progress = model.ProgressSample{}
		}
		if job.Status == "" {
			job.Status = model.StatusQueued
		}
		queue = append(queue, job)
	}
	snap.Queue = queue
	if snap.Completed == nil {
		snap.Completed = []model.Job{}
	}
	if snap.Failed == nil {
		snap.Failed = []model.Job{}
	}
	return snap
}
