package proxy

import "testing"

func TestCurrent_EmptyPoolMeansDirect(t *testing.T) {
	r := NewRotator(nil)
	if got := r.Current(); got != "" {
		t.Fatalf("empty pool should yield direct connection, got %q", got)
	}
}

func TestNewRotator_DedupesAndTrims(t *testing.T) {
	r := NewRotator([]string{" http://p1:8080 ", "http://p1:8080", "", "http://p2:8080"})
	if r.Size() != 2 {
		t.Fatalf("pool size: got %d want 2", r.Size())
	}
}

func TestMarkFailed_RotatesAwayFromBadEntry(t *testing.T) {
	r := NewRotator([]string{"http://p1:8080", "http://p2:8080", "http://p3:8080"})

	first := r.Current()
	r.MarkFailed(first)
	next := r.Current()
	if next == first {
		t.Fatalf("current still returns failed entry %q", next)
	}
}

func TestMarkFailed_IsIdempotentForMembership(t *testing.T) {
	r := NewRotator([]string{"http://p1:8080", "http://p2:8080"})
	r.MarkFailed("http://p1:8080")
	r.MarkFailed("http://p1:8080")

	if got := r.Current(); got != "http://p2:8080" {
		t.Fatalf("current: got %q want p2", got)
	}
	counts := r.FailureCounts()
	if counts["http://p1:8080"] != 2 {
		t.Fatalf("failure count: got %d want 2", counts["http://p1:8080"])
	}
}

func TestCurrent_ExhaustionClearsFailedSet(t *testing.T) {
	pool := []string{"http://p1:8080", "http://p2:8080", "http://p3:8080"}
	r := NewRotator(pool)
	for _, p := range pool {
		r.MarkFailed(p)
	}

	got := r.Current()
	if got == "" {
		t.Fatalf("exhausted pool must reset, not return direct")
	}
	// After the reset every entry is usable again: marking one failed must
	// still leave the others reachable without another reset.
	r.MarkFailed(got)
	next := r.Current()
	if next == got {
		t.Fatalf("expected rotation away from %q after reset", got)
	}
}

func TestAdvance_WrapsAndCounts(t *testing.T) {
	r := NewRotator([]string{"http://p1:8080", "http://p2:8080"})
	first := r.Current()
	r.Advance()
	second := r.Current()
	r.Advance()
	third := r.Current()

	if first == second {
		t.Fatalf("advance did not move the pointer")
	}
	if first != third {
		t.Fatalf("advance did not wrap: first %q third %q", first, third)
	}
	if r.Rotations() != 2 {
		t.Fatalf("rotation counter: got %d want 2", r.Rotations())
	}
}

func TestAdd_DoesNotResetPointerOrFailures(t *testing.T) {
	r := NewRotator([]string{"http://p1:8080"})
	r.MarkFailed("http://p1:8080")
	r.Add("http://p2:8080")

	if r.Size() != 2 {
		t.Fatalf("pool size after add: got %d want 2", r.Size())
	}
	if got := r.Current(); got != "http://p2:8080" {
		t.Fatalf("current after add: got %q want p2 (p1 is failed)", got)
	}
	r.Add("http://p2:8080")
	if r.Size() != 2 {
		t.Fatalf("duplicate add grew the pool")
	}
}
