package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/queue"
	"github.com/applyhub/priority-pipeline/internal/scheduler"
)

type fakeFileSender struct {
	mu   sync.Mutex
	sent []domain.Application
	err  error
}

func (f *fakeFileSender) SendApplication(_ context.Context, app domain.Application) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, app)
	return nil
}

func (f *fakeFileSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestScheduler(q *queue.TierQueues, pub *bus.MockPublisher, files *fakeFileSender, hooks scheduler.MetricHooks) *scheduler.Scheduler {
	return scheduler.New(q, pub, files, scheduler.NopDelay, time.Millisecond, zap.NewNop(), hooks)
}

func enqueueN(q *queue.TierQueues, tier domain.Tier, n int) {
	for i := 0; i < n; i++ {
		q.Enqueue(domain.Application{ID: string(tier) + "-item", Tier: tier, Weight: 50, Payload: "p"})
	}
}

// TestRunCycle_WeightedBudget checks a full cycle releases at most 3 priority,
// 2 main and 1 secondary items when all tiers have surplus.
func TestRunCycle_WeightedBudget(t *testing.T) {
	q := queue.New()
	enqueueN(q, domain.TierPriority, 10)
	enqueueN(q, domain.TierMain, 10)
	enqueueN(q, domain.TierSecondary, 10)

	var mu sync.Mutex
	perTier := make(map[domain.Tier]int)
	hooks := scheduler.MetricHooks{
		OnDispatched: func(tier domain.Tier) {
			mu.Lock()
			perTier[tier]++
			mu.Unlock()
		},
	}

	s := newTestScheduler(q, bus.NewMockPublisher(), &fakeFileSender{}, hooks)
	if got := s.RunCycle(context.Background()); got != 6 {
		t.Fatalf("cycle dispatched %d items, want 6", got)
	}

	if perTier[domain.TierPriority] != 3 || perTier[domain.TierMain] != 2 || perTier[domain.TierSecondary] != 1 {
		t.Fatalf("per-tier dispatch %v, want 3/2/1", perTier)
	}
}

// TestRunCycle_EmptyTierDoesNotStarveOthers checks that an empty priority
// tier forfeits its turns instead of blocking the rest of the cycle.
func TestRunCycle_EmptyTierDoesNotStarveOthers(t *testing.T) {
	q := queue.New()
	enqueueN(q, domain.TierSecondary, 5)

	s := newTestScheduler(q, bus.NewMockPublisher(), &fakeFileSender{}, scheduler.MetricHooks{})
	if got := s.RunCycle(context.Background()); got != 1 {
		t.Fatalf("cycle dispatched %d items, want 1 from secondary", got)
	}
}

// TestRunCycle_DispatchOrder checks the fixed tier order within one cycle:
// priority first, then main, then secondary.
func TestRunCycle_DispatchOrder(t *testing.T) {
	q := queue.New()
	q.Enqueue(domain.Application{ID: "s", Tier: domain.TierSecondary})
	q.Enqueue(domain.Application{ID: "m", Tier: domain.TierMain})
	q.Enqueue(domain.Application{ID: "p", Tier: domain.TierPriority})

	pub := bus.NewMockPublisher()
	s := newTestScheduler(q, pub, &fakeFileSender{}, scheduler.MetricHooks{})
	if got := s.RunCycle(context.Background()); got != 3 {
		t.Fatalf("cycle dispatched %d items, want 3", got)
	}

	apps := pub.Applications()
	if len(apps) != 3 {
		t.Fatalf("published %d applications, want 3", len(apps))
	}
	wantOrder := []string{"p", "m", "s"}
	for i, want := range wantOrder {
		if apps[i].ID != want {
			t.Fatalf("publish order %v, want %v", ids(apps), wantOrder)
		}
	}
}

func ids(apps []domain.Application) []string {
	out := make([]string, len(apps))
	for i, app := range apps {
		out[i] = app.ID
	}
	return out
}

// TestRunCycle_FanOutReachesBothLegs checks every dispatched item goes to
// the bus and the file transport.
func TestRunCycle_FanOutReachesBothLegs(t *testing.T) {
	q := queue.New()
	enqueueN(q, domain.TierMain, 2)

	pub := bus.NewMockPublisher()
	files := &fakeFileSender{}
	s := newTestScheduler(q, pub, files, scheduler.MetricHooks{})
	s.RunCycle(context.Background())

	if len(pub.Applications()) != 2 {
		t.Fatalf("bus leg saw %d items, want 2", len(pub.Applications()))
	}
	if files.count() != 2 {
		t.Fatalf("file leg saw %d items, want 2", files.count())
	}
}

// TestRunCycle_PartialDeliveryAccepted checks a failing file leg does not
// block or roll back the bus leg.
func TestRunCycle_PartialDeliveryAccepted(t *testing.T) {
	q := queue.New()
	enqueueN(q, domain.TierMain, 1)

	pub := bus.NewMockPublisher()
	files := &fakeFileSender{err: context.DeadlineExceeded}

	dispatched := 0
	s := newTestScheduler(q, pub, files, scheduler.MetricHooks{
		OnDispatched: func(domain.Tier) { dispatched++ },
	})
	if got := s.RunCycle(context.Background()); got != 1 {
		t.Fatalf("cycle dispatched %d items, want 1", got)
	}

	if len(pub.Applications()) != 1 {
		t.Fatal("bus leg must still receive the item when the file leg fails")
	}
	if dispatched != 1 {
		t.Fatal("a partially delivered item still counts as dispatched")
	}
}

// TestRunCycle_CancelledDelayDropsItem checks an item pulled off the queue
// but cancelled mid-delay is dropped, not delivered.
func TestRunCycle_CancelledDelayDropsItem(t *testing.T) {
	q := queue.New()
	enqueueN(q, domain.TierPriority, 1)

	ctx, cancel := context.WithCancel(context.Background())
	delay := func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}

	dropped := 0
	pub := bus.NewMockPublisher()
	s := scheduler.New(q, pub, &fakeFileSender{}, delay, time.Millisecond, zap.NewNop(), scheduler.MetricHooks{
		OnDropped: func(domain.Tier) { dropped++ },
	})
	s.RunCycle(ctx)

	if dropped != 1 {
		t.Fatalf("dropped %d items, want 1", dropped)
	}
	if len(pub.Applications()) != 0 {
		t.Fatal("a dropped item must not reach the bus")
	}
}

// TestRun_StopsOnCancel checks the long-running loop exits once the context
// is cancelled, even while idle.
func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestScheduler(queue.New(), bus.NewMockPublisher(), &fakeFileSender{}, scheduler.MetricHooks{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}

func TestUniformDelay_WithinBounds(t *testing.T) {
	delay := scheduler.UniformDelay(time.Millisecond, 5*time.Millisecond)

	start := time.Now()
	if err := delay(context.Background()); err != nil {
		t.Fatalf("unexpected delay error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Fatalf("delay returned after %v, want at least 1ms", elapsed)
	}
}

func TestUniformDelay_CancelledEarly(t *testing.T) {
	delay := scheduler.UniformDelay(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := delay(ctx); err == nil {
		t.Fatal("expected a cancellation error")
	}
}
