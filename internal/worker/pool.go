package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/stats"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnProcessed func(tier domain.Tier)
	OnFailed    func()
}

// Pool owns the internal work channel and the workers draining it.
//
// The channel is bounded; a full channel blocks the intake rather than
// dropping work, which in turn delays bus acknowledgement. Back-pressure
// propagates upstream instead of growing memory without limit.
type Pool struct {
	work    chan domain.Application
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates size workers sharing one work channel of the given
// capacity. Workers are identical; item identity and tier live on the
// application itself.
func NewPool(
	size int,
	buffer int,
	repo repository.ApplicationRepository,
	publisher bus.Publisher,
	agg *stats.Aggregator,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	if hooks.OnProcessed == nil {
		hooks.OnProcessed = func(domain.Tier) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}

	work := make(chan domain.Application, buffer)
	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = &Worker{
			id:          i,
			work:        work,
			repo:        repo,
			publisher:   publisher,
			agg:         agg,
			logger:      logger.With(zap.Int("worker_id", i)),
			onProcessed: hooks.OnProcessed,
			onFailed:    hooks.OnFailed,
		}
	}
	return &Pool{work: work, workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Enqueue pushes an application into the work channel, blocking while the
// channel is full. Returns ctx.Err() if cancelled while waiting; the
// caller must then leave the delivery unacknowledged.
func (p *Pool) Enqueue(ctx context.Context, app domain.Application) error {
	select {
	case p.work <- app:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admission of new work. Call after the intake has stopped;
// workers then drain what remains and exit.
func (p *Pool) Close() {
	close(p.work)
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// compile-time check that Pool satisfies the intake's sink
var _ Sink = (*Pool)(nil)
