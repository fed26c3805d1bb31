package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fetchq/internal/fetch"
	"fetchq/internal/model"
	"fetchq/internal/progress"
	"fetchq/internal/proxy"
	"fetchq/internal/queue"
	"fetchq/internal/statestore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *queue.Scheduler) {
	t.Helper()
	fetcher := fetch.Func(func(ctx context.Context, job model.Job, proxyURL, outputDir string, cb fetch.Callbacks) error {
		return nil
	})
	store := statestore.NewFileStore(filepath.Join(t.TempDir(), "queue.json"))
	sched := queue.New(queue.Config{RetryDelay: time.Millisecond}, fetcher, proxy.NewRotator(nil), store, progress.NewAggregator())
	t.Cleanup(sched.Close)
	return New(sched, 100, 100), sched
}

func TestSubmitJob(t *testing.T) {
	server, sched := newTestServer(t)
	router := server.Router()

	body := strings.NewReader(`{"url":"https://example.com/v/1","kind":"audio"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status: got %d want 202 (body %s)", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatalf("missing job_id in %s", w.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.WaitIdle(ctx); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
}

func TestSubmitJob_Validation(t *testing.T) {
	server, _ := newTestServer(t)
	router := server.Router()

	cases := []string{
		`{}`,
		`{"url":""}`,
		`{"url":"https://example.com/v/1","kind":"hologram"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: got status %d want 400", body, w.Code)
		}
	}
}

func TestListJobsAndHealth(t *testing.T) {
	server, sched := newTestServer(t)
	router := server.Router()

	sched.Submit("https://example.com/v/1", model.Variant{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sched.WaitIdle(ctx); err != nil {
		t.Fatalf("wait idle: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status: got %d", w.Code)
	}
	var detail queue.DetailedStatus
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Counts.Completed != 1 {
		t.Fatalf("detail counts: %+v", detail.Counts)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status: got %d", w.Code)
	}
}

func TestThrottle(t *testing.T) {
	fetcher := fetch.Func(func(ctx context.Context, job model.Job, proxyURL, outputDir string, cb fetch.Callbacks) error {
		return nil
	})
	store := statestore.NewFileStore(filepath.Join(t.TempDir(), "queue.json"))
	sched := queue.New(queue.Config{RetryDelay: time.Millisecond}, fetcher, proxy.NewRotator(nil), store, progress.NewAggregator())
	t.Cleanup(sched.Close)
	server := New(sched, 1, 1)
	router := server.Router()

	// The single burst token lets one request through; the next is rejected.
	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if first.Code != http.StatusOK {
		t.Fatalf("first request: got %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d want 429", second.Code)
	}
}
