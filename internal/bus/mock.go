package bus

import (
	"context"
	"sync"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// MockPublisher records published messages in memory for tests.
// Error overrides simulate an unreachable bus.
type MockPublisher struct {
	mu           sync.Mutex
	applications []domain.Application
	results      []domain.Result

	PublishApplicationErr error
	PublishResultErr      error
}

func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (m *MockPublisher) PublishApplication(_ context.Context, app domain.Application) error {
	if m.PublishApplicationErr != nil {
		return m.PublishApplicationErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications = append(m.applications, app)
	return nil
}

func (m *MockPublisher) PublishResult(_ context.Context, res domain.Result) error {
	if m.PublishResultErr != nil {
		return m.PublishResultErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func (m *MockPublisher) Applications() []domain.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Application, len(m.applications))
	copy(out, m.applications)
	return out
}

func (m *MockPublisher) Results() []domain.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Result, len(m.results))
	copy(out, m.results)
	return out
}

// MockConsumer replays a fixed set of deliveries and records acks.
type MockConsumer struct {
	mu       sync.Mutex
	pending  []Message
	acked    []string
	FetchErr error
}

func NewMockConsumer(messages ...Message) *MockConsumer {
	return &MockConsumer{pending: messages}
}

func (m *MockConsumer) Fetch(ctx context.Context, max int) ([]Message, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		// Behave like a blocking poll so the intake loop parks on ctx
		// instead of spinning when the test's messages run out.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if max > len(m.pending) {
		max = len(m.pending)
	}
	batch := m.pending[:max]
	m.pending = m.pending[max:]
	m.mu.Unlock()
	return batch, nil
}

func (m *MockConsumer) Ack(_ context.Context, deliveryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, deliveryID)
	return nil
}

func (m *MockConsumer) Close() error { return nil }

func (m *MockConsumer) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.acked))
	copy(out, m.acked)
	return out
}
