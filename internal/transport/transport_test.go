package transport_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/staging"
	"github.com/applyhub/priority-pipeline/internal/transport"
)

// memoryObjectStore backs the promotion service during round-trip tests.
type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (m *memoryObjectStore) EnsureBucket(context.Context) error { return nil }

func (m *memoryObjectStore) Put(_ context.Context, key string, content []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = content
	return nil
}

func (m *memoryObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjectStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.local/" + key, nil
}

func (m *memoryObjectStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func newTestServer(t *testing.T) (*httptest.Server, *staging.Store, *memoryObjectStore) {
	t.Helper()

	logger := zap.NewNop()
	st := staging.NewStore(time.Minute, logger)
	objects := newMemoryObjectStore()
	promotion := service.NewPromotionService(st, objects, time.Hour, logger)

	srv := httptest.NewServer(transport.NewServer(st, promotion, logger).Router())
	t.Cleanup(srv.Close)
	return srv, st, objects
}

// TestClient_SendApplication_RoundTrip drives the full stage-then-promote
// flow through a real HTTP server.
func TestClient_SendApplication_RoundTrip(t *testing.T) {
	srv, st, objects := newTestServer(t)
	client := transport.NewClient(srv.URL, 5*time.Second, zap.NewNop())

	app := domain.Application{
		ID:     "app-1",
		Weight: 90,
		Tier:   domain.TierPriority,
		Files:  []string{"resume.pdf", "cover.txt"},
	}
	if err := client.SendApplication(context.Background(), app); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if objects.count() != 2 {
		t.Fatalf("object store holds %d objects, want 2", objects.count())
	}
	if st.Len() != 0 {
		t.Fatalf("%d staged entries left after promotion, want 0", st.Len())
	}
}

func TestClient_SendApplication_NoFilesIsNoop(t *testing.T) {
	srv, _, objects := newTestServer(t)
	client := transport.NewClient(srv.URL, 5*time.Second, zap.NewNop())

	app := domain.Application{ID: "app-1", Weight: 50, Tier: domain.TierMain}
	if err := client.SendApplication(context.Background(), app); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if objects.count() != 0 {
		t.Fatal("no-file application must not touch the object store")
	}
}

func TestClient_SendApplication_ServerDown(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.Close()

	client := transport.NewClient(srv.URL, time.Second, zap.NewNop())
	app := domain.Application{ID: "app-1", Files: []string{"a.txt"}}
	if err := client.SendApplication(context.Background(), app); err == nil {
		t.Fatal("expected an error when the filestore is unreachable")
	}
}

func TestClient_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)
	client := transport.NewClient(srv.URL, 5*time.Second, zap.NewNop())

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}

func TestServer_RejectsMalformedStageBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/rpc/v1/files/stage", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
