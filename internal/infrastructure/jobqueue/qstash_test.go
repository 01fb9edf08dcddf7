package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/platform/resilience"
)

type capturedRequest struct {
	path   string
	header http.Header
	body   string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{path: r.URL.Path, header: r.Header.Clone(), body: string(raw)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestClientPublish_SendsUpstashHeaders(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusCreated)

	client := NewClient(Config{
		BaseURL:          srv.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://api.bilardeando.test",
		Retries:          3,
		InternalJobToken: "job-secret",
	}, nil)

	err := client.Publish(t.Context(), Job{
		Path:            "v1/internal/jobs/league-lock",
		Payload:         map[string]any{"league_id": "lg-1"},
		Delay:           90 * time.Second,
		DeduplicationID: "league-lock-lg-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	reqs := captured()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.path != "/v2/publish/https://api.bilardeando.test/v1/internal/jobs/league-lock" {
		t.Fatalf("unexpected publish path %q", req.path)
	}
	expectHeaders := map[string]string{
		"Authorization":                        "Bearer qstash-token",
		"Upstash-Delay":                        "90s",
		"Upstash-Retries":                      "3",
		"Upstash-Deduplication-Id":             "league-lock-lg-1",
		"Upstash-Forward-X-Internal-Job-Token": "job-secret",
	}
	for name, want := range expectHeaders {
		if got := req.header.Get(name); got != want {
			t.Fatalf("header %s: expected %q, got %q", name, want, got)
		}
	}
	if !strings.Contains(req.body, `"league_id":"lg-1"`) {
		t.Fatalf("unexpected body %s", req.body)
	}
}

func TestClientPublish_ServerErrorIsTransientAndTripsBreaker(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusBadGateway)

	client := NewClient(Config{
		BaseURL:       srv.URL,
		TargetBaseURL: "https://api.bilardeando.test",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, nil)

	err := client.Publish(t.Context(), Job{Path: "/jobs/x"})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}

	if err := client.Publish(t.Context(), Job{Path: "/jobs/x"}); err == nil {
		t.Fatalf("expected breaker to reject the second call")
	}
	if got := len(captured()); got != 1 {
		t.Fatalf("expected breaker to short-circuit, server saw %d requests", got)
	}
}

func TestClientPublish_RejectsBadConfig(t *testing.T) {
	client := NewClient(Config{BaseURL: "ftp://qstash", TargetBaseURL: "https://api"}, nil)
	if err := client.Publish(t.Context(), Job{Path: "/jobs/x"}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	if err := client.Publish(t.Context(), Job{Path: " "}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

type recordingPublisher struct {
	jobs []Job
}

func (r *recordingPublisher) Publish(_ context.Context, job Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func TestLeagueLockScheduler_ComputesDelay(t *testing.T) {
	pub := &recordingPublisher{}
	scheduler := NewLeagueLockScheduler(pub)
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	scheduler.now = func() time.Time { return now }

	if err := scheduler.ScheduleLeagueLock(t.Context(), "lg-1", 2, now.Add(3*time.Hour)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := scheduler.ScheduleLeagueLock(t.Context(), "lg-2", 1, now.Add(-time.Hour)); err != nil {
		t.Fatalf("schedule past: %v", err)
	}

	if len(pub.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(pub.jobs))
	}
	if pub.jobs[0].Delay != 3*time.Hour || pub.jobs[0].Path != LeagueLockPath {
		t.Fatalf("unexpected first job %+v", pub.jobs[0])
	}
	if pub.jobs[1].Delay != 0 {
		t.Fatalf("expected past run to be immediate, got %s", pub.jobs[1].Delay)
	}
	if pub.jobs[0].DeduplicationID != "league-lock-lg-1-2" {
		t.Fatalf("unexpected dedup id %q", pub.jobs[0].DeduplicationID)
	}
}
