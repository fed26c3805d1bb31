package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
)

// Variant is the requested output shape for a job.
type Variant struct {
	Kind    string `json:"kind"`              // video|audio
	Quality string `json:"quality,omitempty"` // best|1080p|720p (video only)
}

// ProgressSample is the last observed progress report for a job attempt.
type ProgressSample struct {
	Percent float64 `json:"percent"`
	Rate    string  `json:"rate,omitempty"` // raw collaborator rate string, e.g. "2.31MiB/s"
	ETA     string  `json:"eta,omitempty"`
}

// Job is one user-submitted unit of work.
type Job struct {
	ID          string         `json:"id"`
	SourceURL   string         `json:"source_url"`
	Title       string         `json:"title"`
	Variant     Variant        `json:"variant"`
	SubmittedAt string         `json:"submitted_at"`
	Attempts    int            `json:"attempts,omitempty"`
	MaxAttempts int            `json:"max_attempts"`
	Status      string         `json:"status"`
	Progress    ProgressSample `json:"progress,omitzero"`
	SizeBytes   int64          `json:"size_bytes,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	StartedAt   string         `json:"started_at,omitempty"`
	CompletedAt string         `json:"completed_at,omitempty"`
}

// NewJob creates a queued job. The title stays "Unknown" until the
// acquisition side resolves it.
func NewJob(sourceURL string, variant Variant, maxAttempts int) Job {
	if variant.Kind == "" {
		variant.Kind = KindVideo
	}
	return Job{
		ID:          uuid.NewString(),
		SourceURL:   sourceURL,
		Title:       "Unknown",
		Variant:     variant,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
		MaxAttempts: maxAttempts,
		Status:      StatusQueued,
	}
}

// DisplayTitle prefers the resolved title and falls back to the source URL.
func (j Job) DisplayTitle() string {
	if j.Title != "" && j.Title != "Unknown" {
		return j.Title
	}
	return j.SourceURL
}

// AttemptsRemaining reports whether a failed attempt may be retried.
func (j Job) AttemptsRemaining() bool {
	return j.Attempts < j.MaxAttempts
}
