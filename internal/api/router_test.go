package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/api"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/queue"
	"github.com/applyhub/priority-pipeline/internal/ratelimiter"
	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/stats"
)

func newGateway(t *testing.T, limiter *ratelimiter.SubmissionLimiter) (*httptest.Server, *queue.TierQueues) {
	t.Helper()

	logger := zap.NewNop()
	q := queue.New()
	admission := service.NewAdmissionService(q, logger, nil)
	reg := prometheus.NewRegistry()

	srv := httptest.NewServer(api.NewGatewayRouter(admission, q, limiter, reg, logger))
	t.Cleanup(srv.Close)
	return srv, q
}

func postApplication(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+"/api/v1/applications", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGateway_SubmitAccepted(t *testing.T) {
	srv, q := newGateway(t, ratelimiter.New(100, 100))

	resp := postApplication(t, srv, `{"weight": 85, "payload": "candidate data"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var submitted domain.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if submitted.Tier != domain.TierPriority {
		t.Fatalf("tier = %s, want priority", submitted.Tier)
	}
	if submitted.ID == "" {
		t.Fatal("response missing application id")
	}

	p, _, _ := q.Depths()
	if p != 1 {
		t.Fatalf("priority depth = %d after submit, want 1", p)
	}
}

func TestGateway_SubmitRejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"weight too high", `{"weight": 101, "payload": "data"}`, http.StatusUnprocessableEntity},
		{"weight negative", `{"weight": -5, "payload": "data"}`, http.StatusUnprocessableEntity},
		{"payload empty", `{"weight": 50, "payload": "  "}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"weight": `, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, q := newGateway(t, ratelimiter.New(100, 100))

			resp := postApplication(t, srv, tc.body)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			p, m, s := q.Depths()
			if p+m+s != 0 {
				t.Fatal("rejected submission must not be enqueued")
			}
		})
	}
}

func TestGateway_SubmitRateLimited(t *testing.T) {
	// Zero rate, zero burst: every request is over the limit.
	srv, _ := newGateway(t, ratelimiter.New(0, 0))

	resp := postApplication(t, srv, `{"weight": 50, "payload": "data"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestGateway_QueueDepthSnapshot(t *testing.T) {
	srv, q := newGateway(t, ratelimiter.New(100, 100))
	q.Enqueue(domain.Application{ID: "a", Tier: domain.TierPriority})
	q.Enqueue(domain.Application{ID: "b", Tier: domain.TierSecondary})

	resp, err := srv.Client().Get(srv.URL + "/api/v1/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		QueueDepth map[string]int `json:"queue_depth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.QueueDepth["priority"] != 1 || body.QueueDepth["secondary"] != 1 || body.QueueDepth["total"] != 2 {
		t.Fatalf("unexpected snapshot: %v", body.QueueDepth)
	}
}

func TestGateway_CorrelationIDEchoed(t *testing.T) {
	srv, _ := newGateway(t, ratelimiter.New(100, 100))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Correlation-ID", "test-corr-1")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Correlation-ID"); got != "test-corr-1" {
		t.Fatalf("correlation id %q not echoed", got)
	}
}

func newProcessor(t *testing.T, repo repository.ApplicationRepository, agg *stats.Aggregator) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api.NewProcessorRouter(repo, agg, prometheus.NewRegistry(), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcessor_GetByID(t *testing.T) {
	repo := repository.NewMockApplicationRepository()
	app := &domain.Application{ID: "11111111-2222-3333-4444-555555555555", Weight: 90, Tier: domain.TierPriority, Payload: "data"}
	if _, err := repo.Insert(context.Background(), app); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	srv := newProcessor(t, repo, stats.NewAggregator())

	resp, err := srv.Client().Get(srv.URL + "/api/v1/applications/" + app.ID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got domain.Application
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != app.ID || got.Tier != domain.TierPriority {
		t.Fatalf("unexpected application: %+v", got)
	}
}

func TestProcessor_GetByIDNotFound(t *testing.T) {
	srv := newProcessor(t, repository.NewMockApplicationRepository(), stats.NewAggregator())

	resp, err := srv.Client().Get(srv.URL + "/api/v1/applications/unknown")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProcessor_GetStats(t *testing.T) {
	agg := stats.NewAggregator()
	agg.IncProcessed()
	agg.IncTier(domain.TierMain)

	srv := newProcessor(t, repository.NewMockApplicationRepository(), agg)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var snap stats.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if snap.TotalProcessed != 1 || snap.ByTier[domain.TierMain] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
