// Package queue is the orchestrator core: it owns the job lifecycle state
// machine, enforces the concurrency bound, drives retries and proxy rotation,
// and emits typed lifecycle events for presentation layers.
package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"fetchq/internal/fetch"
	"fetchq/internal/model"
	"fetchq/internal/progress"
	"fetchq/internal/proxy"
	"fetchq/internal/statestore"
)

// Config holds the scheduler constants. They are fixed at construction and
// never mutated at runtime.
type Config struct {
	Concurrency    int           // max jobs simultaneously processing
	MaxAttempts    int           // attempt ceiling per job
	RetryDelay     time.Duration // pause before re-advancing after an attempt resolves
	AttemptTimeout time.Duration // 0 disables the per-attempt deadline
	OutputDir      string
	SaveInterval   time.Duration // 0 disables the periodic snapshot save
	EventBuffer    int
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.OutputDir == "" {
		c.OutputDir = "downloads"
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
	return c
}

type attempt struct {
	seq    uint64
	job    *model.Job
	cancel context.CancelFunc
}

// Scheduler owns the job collections exclusively. The queue head holds
// retried jobs (serviced before never-attempted ones); completed and failed
// lists only grow.
type Scheduler struct {
	cfg     Config
	fetcher fetch.Fetcher
	rotator *proxy.Rotator
	store   statestore.Store
	agg     *progress.Aggregator

	mu         sync.Mutex
	queue      []*model.Job
	processing map[string]*attempt
	attemptSeq uint64
	completed  []model.Job
	failed     []model.Job
	startTime  time.Time
	closed     bool

	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup
}

// New restores the persisted snapshot and returns a ready scheduler. The
// rotator is injected here and passed to every attempt explicitly; attempts
// never reach for shared rotation state on their own.
func New(cfg Config, fetcher fetch.Fetcher, rotator *proxy.Rotator, store statestore.Store, agg *progress.Aggregator) *Scheduler {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:        cfg,
		fetcher:    fetcher,
		rotator:    rotator,
		store:      store,
		agg:        agg,
		processing: make(map[string]*attempt),
		events:     make(chan Event, cfg.EventBuffer),
		stop:       make(chan struct{}),
	}

	snap := store.Load()
	for i := range snap.Queue {
		job := snap.Queue[i]
		job.MaxAttempts = cfg.MaxAttempts
		s.queue = append(s.queue, &job)
	}
	s.completed = snap.Completed
	s.failed = snap.Failed
	if snap.StartTime > 0 {
		s.startTime = time.UnixMilli(snap.StartTime)
	} else {
		s.startTime = time.Now()
	}

	if cfg.SaveInterval > 0 {
		go s.periodicSave()
	}
	return s
}

// Events returns the lifecycle event stream. Sends never block the
// scheduler: a full buffer drops events for slow consumers.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Submit enqueues a new job and tries to advance. Never blocks the caller.
func (s *Scheduler) Submit(sourceURL string, variant model.Variant) string {
	job := model.NewJob(sourceURL, variant, s.cfg.MaxAttempts)

	s.mu.Lock()
	j := job
	s.queue = append(s.queue, &j)
	s.persistLocked()
	s.emitQueueChangedLocked()
	s.mu.Unlock()

	s.advance()
	return job.ID
}

// advance admits queued jobs while concurrency slots remain. The check and
// the admit happen under one lock so back-to-back resolutions can never push
// the processing set past the bound.
func (s *Scheduler) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := false
	for !s.closed && len(s.processing) < s.cfg.Concurrency && len(s.queue) > 0 {
		job := s.queue[0]
		s.queue = s.queue[1:]
		if err := model.TransitionJobStatus(job, model.StatusProcessing); err != nil {
			log.Printf("warning: dropping job from queue: %v", err)
			continue
		}
		job.StartedAt = time.Now().UTC().Format(time.RFC3339)
		job.Progress = model.ProgressSample{}

		proxyURL := s.rotator.Current()
		ctx := context.Background()
		var cancel context.CancelFunc
		if s.cfg.AttemptTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		} else {
			ctx, cancel = context.WithCancel(ctx)
		}
		s.attemptSeq++
		s.processing[job.ID] = &attempt{seq: s.attemptSeq, job: job, cancel: cancel}
		s.emitLocked(Event{Kind: EventJobStarted, Job: *job})
		started = true

		s.wg.Add(1)
		go s.runAttempt(ctx, cancel, job.ID, s.attemptSeq, *job, proxyURL)
	}
	if started {
		s.persistLocked()
		s.emitQueueChangedLocked()
	}
}

func (s *Scheduler) runAttempt(ctx context.Context, cancel context.CancelFunc, jobID string, seq uint64, job model.Job, proxyURL string) {
	defer s.wg.Done()
	defer cancel()

	cb := fetch.Callbacks{
		Progress: func(sample model.ProgressSample) { s.recordProgress(jobID, seq, sample) },
		Title:    func(title string) { s.setTitle(jobID, seq, title) },
		Size:     func(n int64) { s.setSize(jobID, seq, n) },
		ProxyFail: func(p string) {
			s.rotator.MarkFailed(p)
		},
	}
	err := s.fetcher.Fetch(ctx, job, proxyURL, s.cfg.OutputDir, cb)
	s.resolve(jobID, seq, err)
}

// attemptLocked resolves a (jobID, seq) pair to the live attempt. A miss on
// either means the attempt was superseded: CancelAll reclaimed the job, or a
// re-admission started a newer attempt while the old goroutine unwound.
func (s *Scheduler) attemptLocked(jobID string, seq uint64) (*attempt, bool) {
	att, ok := s.processing[jobID]
	if !ok || att.seq != seq {
		return nil, false
	}
	return att, true
}

// resolve settles one attempt: success completes the job, failure either
// requeues it at the head or fails it terminally once the attempt ceiling is
// reached. The freed slot is re-advanced after RetryDelay so a rate-limiting
// endpoint is not immediately re-hammered.
func (s *Scheduler) resolve(jobID string, seq uint64, err error) {
	s.mu.Lock()
	att, ok := s.attemptLocked(jobID, seq)
	if !ok {
		// Superseded attempt: its outcome must not touch the job.
		s.mu.Unlock()
		return
	}
	delete(s.processing, jobID)
	s.agg.Forget(jobID)
	job := att.job

	if err == nil {
		if trErr := model.TransitionJobStatus(job, model.StatusCompleted); trErr != nil {
			log.Printf("warning: %v", trErr)
		}
		job.LastError = ""
		job.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		job.Progress = model.ProgressSample{Percent: 100}
		s.completed = append(s.completed, *job)
		s.emitLocked(Event{Kind: EventJobCompleted, Job: *job})
	} else {
		job.Attempts++
		job.LastError = err.Error()
		if job.AttemptsRemaining() {
			if trErr := model.TransitionJobStatus(job, model.StatusQueued); trErr != nil {
				log.Printf("warning: %v", trErr)
			}
			job.StartedAt = ""
			job.Progress = model.ProgressSample{}
			// Head of queue: retried jobs are serviced before fresh ones.
			s.queue = append([]*model.Job{job}, s.queue...)
			s.emitLocked(Event{Kind: EventJobRetried, Job: *job, Err: err.Error()})
		} else {
			if trErr := model.TransitionJobStatus(job, model.StatusFailed); trErr != nil {
				log.Printf("warning: %v", trErr)
			}
			s.failed = append(s.failed, *job)
			s.emitLocked(Event{Kind: EventJobFailed, Job: *job, Err: err.Error()})
		}
	}
	s.persistLocked()
	s.emitQueueChangedLocked()
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		time.AfterFunc(s.cfg.RetryDelay, s.advance)
	}
}

func (s *Scheduler) recordProgress(jobID string, seq uint64, sample model.ProgressSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attemptLocked(jobID, seq)
	if !ok {
		return
	}
	att.job.Progress = sample
	s.agg.Observe(jobID, sample)
	s.emitLocked(Event{Kind: EventProgress, Job: *att.job, Sample: sample})
	s.emitLocked(Event{Kind: EventAggregate, Aggregate: s.aggregateLocked()})
}

func (s *Scheduler) setTitle(jobID string, seq uint64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if att, ok := s.attemptLocked(jobID, seq); ok && title != "" {
		att.job.Title = title
	}
}

func (s *Scheduler) setSize(jobID string, seq uint64, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if att, ok := s.attemptLocked(jobID, seq); ok && bytes > 0 {
		att.job.SizeBytes = bytes
	}
}

// Status is the read-only counts snapshot. Computable without mutation.
type Status struct {
	Counts progress.Counts `json:"counts"`
	Uptime string          `json:"uptime"`
}

// DetailedStatus adds per-job summaries, recent terminal entries, per-proxy
// failure counts, and the derived aggregate view.
type DetailedStatus struct {
	Status
	ProcessingJobs  []model.Job        `json:"processing_jobs"`
	RecentCompleted []model.Job        `json:"recent_completed,omitempty"`
	RecentFailed    []model.Job        `json:"recent_failed,omitempty"`
	ProxyFailures   map[string]int     `json:"proxy_failures,omitempty"`
	Aggregate       progress.Aggregate `json:"aggregate"`
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Scheduler) DetailedStatus() DetailedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := DetailedStatus{
		Status:        s.statusLocked(),
		ProxyFailures: s.rotator.FailureCounts(),
		Aggregate:     s.aggregateLocked(),
	}
	out.ProcessingJobs = make([]model.Job, 0, len(s.processing))
	for _, att := range s.processing {
		out.ProcessingJobs = append(out.ProcessingJobs, *att.job)
	}
	out.RecentCompleted = lastN(s.completed, 5)
	out.RecentFailed = lastN(s.failed, 5)
	return out
}

// AggregateView returns the derived progress view on demand.
func (s *Scheduler) AggregateView() progress.Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregateLocked()
}

// CancelAll asks every active attempt to stop and returns its job to the
// queue. Jobs are never failed by shutdown; they resume on the next load.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, att := range s.processing {
		att.cancel()
		job := att.job
		if err := model.TransitionJobStatus(job, model.StatusQueued); err != nil {
			log.Printf("warning: %v", err)
		}
		job.StartedAt = ""
		job.Progress = model.ProgressSample{}
		s.agg.Forget(id)
		s.queue = append([]*model.Job{job}, s.queue...)
		delete(s.processing, id)
	}
	s.persistLocked()
	s.emitQueueChangedLocked()
}

// Close cancels active attempts, waits for them to unwind, persists a final
// snapshot, and closes the event stream.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	s.CancelAll()
	s.wg.Wait()

	s.mu.Lock()
	s.persistLocked()
	s.mu.Unlock()
	close(s.events)
}

// WaitIdle blocks until nothing is queued or processing, or ctx is done.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		st := s.Status()
		if st.Counts.Queued == 0 && st.Counts.Processing == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) statusLocked() Status {
	return Status{
		Counts: s.countsLocked(),
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	}
}

func (s *Scheduler) countsLocked() progress.Counts {
	return progress.Counts{
		Queued:     len(s.queue),
		Processing: len(s.processing),
		Completed:  len(s.completed),
		Failed:     len(s.failed),
	}
}

func (s *Scheduler) aggregateLocked() progress.Aggregate {
	return s.agg.Aggregate(s.countsLocked(), s.startTime)
}

// persistLocked snapshot-copies the collections before handing them to the
// store. Processing jobs are persisted ahead of the queued ones so they come
// back at the head after a crash.
func (s *Scheduler) persistLocked() {
	snap := model.Snapshot{
		Queue:     make([]model.Job, 0, len(s.processing)+len(s.queue)),
		Completed: append([]model.Job(nil), s.completed...),
		Failed:    append([]model.Job(nil), s.failed...),
		StartTime: s.startTime.UnixMilli(),
		LastSaved: time.Now().UTC().Format(time.RFC3339),
	}
	for _, att := range s.processing {
		snap.Queue = append(snap.Queue, *att.job)
	}
	for _, job := range s.queue {
		snap.Queue = append(snap.Queue, *job)
	}
	if err := s.store.Save(snap); err != nil {
		log.Printf("warning: persist scheduler state: %v", err)
	}
}

func (s *Scheduler) emitQueueChangedLocked() {
	s.emitLocked(Event{Kind: EventQueueChanged, Counts: s.countsLocked()})
}

func (s *Scheduler) emitLocked(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Scheduler) periodicSave() {
	ticker := time.NewTicker(s.cfg.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.persistLocked()
			s.mu.Unlock()
		}
	}
}

func lastN(jobs []model.Job, n int) []model.Job {
	if len(jobs) <= n {
		return append([]model.Job(nil), jobs...)
	}
	return append([]model.Job(nil), jobs[len(jobs)-n:]...)
}
