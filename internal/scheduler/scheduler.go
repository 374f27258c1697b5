// Package scheduler drains the tier queues in a fixed weighted round-robin
// and dispatches every released application downstream.
package scheduler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/queue"
	"github.com/applyhub/priority-pipeline/internal/transport"
)

// tierTurns fixes the per-cycle dequeue budget: 3 priority, 2 main,
// 1 secondary. A tier that runs dry forfeits its remaining turns rather than
// handing them to another tier, so an empty priority tier never starves
// secondary and a flooded secondary tier never crowds out priority.
var tierTurns = []struct {
	tier  domain.Tier
	turns int
}{
	{domain.TierPriority, 3},
	{domain.TierMain, 2},
	{domain.TierSecondary, 1},
}

// DelayFunc models the variable downstream cost paid before dispatching an
// item. It is a named hook so the delay source can be swapped (tests use
// NopDelay) without touching the scheduling loop.
type DelayFunc func(ctx context.Context) error

// UniformDelay sleeps a duration drawn uniformly from [min, max].
// Returns early with ctx.Err() if cancelled mid-sleep.
func UniformDelay(min, max time.Duration) DelayFunc {
	return func(ctx context.Context) error {
		d := min
		if max > min {
			d = min + rand.N(max-min)
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// NopDelay skips the simulated processing cost entirely.
func NopDelay(context.Context) error { return nil }

// MetricHooks carries the metric callbacks injected by main.
type MetricHooks struct {
	OnDispatched func(tier domain.Tier)
	OnDropped    func(tier domain.Tier)
}

// Scheduler is the single logical loop releasing queued applications.
// One instance runs per process; there is no cross-instance coordination.
type Scheduler struct {
	queues    *queue.TierQueues
	publisher bus.Publisher
	files     transport.FileSender
	delay     DelayFunc
	idleSleep time.Duration
	logger    *zap.Logger
	hooks     MetricHooks
}

func New(
	queues *queue.TierQueues,
	publisher bus.Publisher,
	files transport.FileSender,
	delay DelayFunc,
	idleSleep time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Scheduler {
	if hooks.OnDispatched == nil {
		hooks.OnDispatched = func(domain.Tier) {}
	}
	if hooks.OnDropped == nil {
		hooks.OnDropped = func(domain.Tier) {}
	}
	return &Scheduler{
		queues:    queues,
		publisher: publisher,
		files:     files,
		delay:     delay,
		idleSleep: idleSleep,
		logger:    logger,
		hooks:     hooks,
	}
}

// Run repeats scheduling cycles until ctx is cancelled. A cycle that
// releases nothing is followed by a short sleep so an idle scheduler does
// not busy-spin against three empty queues.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("weighted scheduler started",
		zap.Duration("idle_sleep", s.idleSleep),
	)

	for {
		if ctx.Err() != nil {
			s.logger.Info("weighted scheduler stopping")
			return
		}

		if dispatched := s.RunCycle(ctx); dispatched == 0 {
			timer := time.NewTimer(s.idleSleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info("weighted scheduler stopping")
				return
			case <-timer.C:
			}
		}
	}
}

// RunCycle performs one weighted pass: up to 3 dequeues from priority, 2
// from main, 1 from secondary, stopping early within a tier the first time
// it comes up empty. Returns the number of items dispatched.
func (s *Scheduler) RunCycle(ctx context.Context) int {
	dispatched := 0
	for _, tt := range tierTurns {
		for i := 0; i < tt.turns; i++ {
			if ctx.Err() != nil {
				return dispatched
			}
			app, ok := s.queues.TryDequeue(tt.tier)
			if !ok {
				break
			}
			s.dispatch(ctx, app)
			dispatched++
		}
	}
	return dispatched
}

// dispatch pays the simulated processing delay, then fans the application
// out to the message bus and the file transport concurrently. Both legs are
// awaited; a failed leg is logged and abandoned without blocking or rolling
// back the other, so partial delivery is possible and accepted.
func (s *Scheduler) dispatch(ctx context.Context, app domain.Application) {
	log := s.logger.With(
		zap.String("application_id", app.ID),
		zap.String("tier", string(app.Tier)),
		zap.Int("weight", app.Weight),
	)

	if err := s.delay(ctx); err != nil {
		// Cancelled after dequeue but before delivery. The item cannot go
		// back on the queue, so make the loss explicit.
		log.Warn("dispatch abandoned on shutdown, application dropped", zap.Error(err))
		s.hooks.OnDropped(app.Tier)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := s.publisher.PublishApplication(ctx, app); err != nil {
			log.Error("bus fan-out leg failed", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.files.SendApplication(ctx, app); err != nil {
			log.Error("file transport fan-out leg failed", zap.Error(err))
		}
	}()
	wg.Wait()

	s.hooks.OnDispatched(app.Tier)
	log.Info("application dispatched")
}
