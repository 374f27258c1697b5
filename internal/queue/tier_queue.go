package queue

import (
	"sync"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// fifo is an unbounded first-in-first-out sequence, safe for concurrent use.
// Enqueue never blocks and never fails; TryDequeue never waits for data.
type fifo struct {
	mu    sync.Mutex
	items []domain.Application
}

func (f *fifo) enqueue(app domain.Application) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, app)
}

func (f *fifo) tryDequeue() (domain.Application, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return domain.Application{}, false
	}
	app := f.items[0]
	f.items = f.items[1:]
	return app, true
}

func (f *fifo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// TierQueues holds one independent unbounded FIFO queue per tier.
//
// FIFO order is guaranteed within a single tier only; ordering across tiers
// is entirely the scheduler's business. Unlike a bounded channel queue there
// is no back-pressure here: admission must always succeed, and the weighted
// scheduler is the sole consumer keeping the queues drained.
type TierQueues struct {
	priority  fifo
	main      fifo
	secondary fifo
}

func New() *TierQueues {
	return &TierQueues{}
}

// Enqueue appends the application to the tail of its tier's queue.
func (q *TierQueues) Enqueue(app domain.Application) {
	q.byTier(app.Tier).enqueue(app)
}

// TryDequeue removes and returns the head of the given tier's queue.
// Returns false immediately when the tier is empty, never blocking.
func (q *TierQueues) TryDequeue(tier domain.Tier) (domain.Application, bool) {
	return q.byTier(tier).tryDequeue()
}

// Depths returns the current number of waiting items per tier.
// Used by the metrics handler for the queue-depth snapshot.
func (q *TierQueues) Depths() (priority, main, secondary int) {
	return q.priority.len(), q.main.len(), q.secondary.len()
}

func (q *TierQueues) byTier(tier domain.Tier) *fifo {
	switch tier {
	case domain.TierPriority:
		return &q.priority
	case domain.TierMain:
		return &q.main
	default:
		return &q.secondary
	}
}
