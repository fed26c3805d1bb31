// Package proxy maintains the pool of egress proxy endpoints the scheduler
// routes acquisition attempts through. Failure marks are advisory hints from
// the acquisition side; the rotator does no health probing of its own.
package proxy

import (
	"strings"
	"sync"
)

type Rotator struct {
	mu        sync.Mutex
	pool      []string
	failed    map[string]bool
	failCount map[string]int
	idx       int
	rotations int
}

func NewRotator(endpoints []string) *Rotator {
	return &Rotator{
		pool:      normalizeEndpoints(endpoints),
		failed:    make(map[string]bool),
		failCount: make(map[string]int),
	}
}

// Current returns the endpoint at the rotation pointer, skipping entries
// marked failed. If a full sweep finds every entry failed, the failed set is
// cleared and rotation resumes from the pointer: the pool is never permanently
// exhausted. An empty string means "direct connection, no proxy".
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) == 0 {
		return ""
	}
	for range r.pool {
		if !r.failed[r.pool[r.idx]] {
			return r.pool[r.idx]
		}
		r.advanceLocked()
	}
	// Every entry is failed: full reset.
	clear(r.failed)
	return r.pool[r.idx]
}

// Advance moves the pointer to the next entry, wrapping around the pool.
func (r *Rotator) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advanceLocked()
}

// MarkFailed records an endpoint as unusable and always rotates away from it,
// even if the caller never asks for a replacement. Marking is idempotent.
func (r *Rotator) MarkFailed(endpoint string) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[endpoint] = true
	r.failCount[endpoint]++
	r.advanceLocked()
}

// Add appends a new endpoint at runtime. The pointer and the failed set are
// left untouched.
func (r *Rotator) Add(endpoint string) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pool {
		if p == endpoint {
			return
		}
	}
	r.pool = append(r.pool, endpoint)
}

func (r *Rotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// Rotations reports how many times the pointer advanced. Observability only.
func (r *Rotator) Rotations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotations
}

// FailureCounts returns a copy of the per-endpoint failure tallies.
func (r *Rotator) FailureCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.failCount))
	for k, v := range r.failCount {
		out[k] = v
	}
	return out
}

func (r *Rotator) advanceLocked() {
	if len(r.pool) == 0 {
		return
	}
	r.idx = (r.idx + 1) % len(r.pool)
	r.rotations++
}

func normalizeEndpoints(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		v := strings.TrimSpace(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
