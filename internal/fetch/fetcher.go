// Package fetch is the acquisition side of the orchestrator: it performs the
// actual transfer for one job through an optional proxy and reports progress
// back to the scheduler. The scheduler treats it as a black box.
package fetch

import (
	"context"

	"fetchq/internal/model"
)

// Callbacks carries the per-attempt notifications back to the scheduler.
// Any field may be nil. ProxyFail is invoked at most once per attempt, only
// when blocking or rate limiting looks tied to the proxy in use.
type Callbacks struct {
	Progress  func(model.ProgressSample)
	Title     func(title string)
	Size      func(bytes int64)
	ProxyFail func(proxyURL string)
}

// Fetcher acquires one job. proxyURL empty means direct connection. The
// returned error's text is captured verbatim into the job's terminal record.
type Fetcher interface {
	Fetch(ctx context.Context, job model.Job, proxyURL, outputDir string, cb Callbacks) error
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, job model.Job, proxyURL, outputDir string, cb Callbacks) error

func (f Func) Fetch(ctx context.Context, job model.Job, proxyURL, outputDir string, cb Callbacks) error {
	return f(ctx, job, proxyURL, outputDir, cb)
}
