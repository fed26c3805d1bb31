package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{"", StatusQueued},
		{StatusQueued, StatusProcessing},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusFailed},
		{StatusProcessing, StatusQueued},
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{StatusQueued, StatusCompleted},
		{StatusQueued, StatusFailed},
		{StatusCompleted, StatusQueued},
		{StatusCompleted, StatusProcessing},
		{StatusFailed, StatusQueued},
		{StatusFailed, StatusProcessing},
		{"not_a_state", StatusQueued},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransitionJobStatus_BlocksIllegalTransition(t *testing.T) {
	job := Job{ID: "job-1", Status: StatusQueued}

	if err := TransitionJobStatus(&job, StatusCompleted); err == nil {
		t.Fatalf("expected illegal transition error")
	}
	if job.Status != StatusQueued {
		t.Fatalf("status mutated on rejected transition: %q", job.Status)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(StatusQueued) || IsTerminal(StatusProcessing) {
		t.Fatalf("non-terminal states reported terminal")
	}
	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusFailed) {
		t.Fatalf("terminal states not reported terminal")
	}
}
