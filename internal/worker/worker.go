package worker

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/bus"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/stats"
	"github.com/applyhub/priority-pipeline/internal/validator"
)

// Worker is a single goroutine draining the pool's work channel. Per item it
// runs validate → insert → status transition → statistics → result publish,
// one item to completion before taking the next.
type Worker struct {
	id        int
	work      <-chan domain.Application
	repo      repository.ApplicationRepository
	publisher bus.Publisher
	agg       *stats.Aggregator
	logger    *zap.Logger

	// Metric hooks injected by the pool so the worker stays metrics-agnostic.
	onProcessed func(tier domain.Tier)
	onFailed    func()
}

// Run blocks until ctx is cancelled or the work channel is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return
		case app, ok := <-w.work:
			if !ok {
				w.logger.Info("worker finished, channel drained")
				return
			}
			w.process(ctx, app)
		}
	}
}

// process drives one application to a terminal outcome. Every failure mode,
// validation, persistence or a panic, is resolved here, counted, and reported
// as an error result; nothing escapes to kill the worker.
func (w *Worker) process(ctx context.Context, app domain.Application) {
	log := w.logger.With(
		zap.String("application_id", app.ID),
		zap.String("tier", string(app.Tier)),
		zap.Int("weight", app.Weight),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing application", zap.Any("panic", r))
			w.agg.IncFailed()
			w.onFailed()
			w.publishResult(ctx, log, domain.ErrorResult(app.ID, "internal processing error"))
		}
	}()

	if vr := validator.Validate(app); !vr.Valid {
		reason := strings.Join(vr.Errors, "; ")
		log.Warn("application failed validation", zap.Strings("violations", vr.Errors))
		w.agg.IncValidationFailed()
		w.onFailed()
		w.publishResult(ctx, log, domain.ErrorResult(app.ID, reason))
		return
	}

	inserted, err := w.repo.Insert(ctx, &app)
	if err != nil {
		log.Error("persistence insert failed", zap.Error(err))
		w.agg.IncFailed()
		w.onFailed()
		w.publishResult(ctx, log, domain.ErrorResult(app.ID, "failed to persist application"))
		return
	}
	if !inserted {
		// Duplicate id: a redelivery already persisted by an earlier
		// attempt. Counted as a failed attempt; the stored record is intact.
		log.Warn("persistence rejected application, likely a replay")
		w.agg.IncFailed()
		w.onFailed()
		w.publishResult(ctx, log, domain.ErrorResult(app.ID, "application rejected by store"))
		return
	}

	if ok, err := w.repo.UpdateStatus(ctx, app.ID, domain.StatusProcessed, nil); err != nil || !ok {
		// The record exists and the item is effectively done; the stale
		// status will be corrected by the next replay if it matters.
		log.Warn("status transition to processed failed", zap.Error(err))
	}

	w.agg.IncProcessed()
	w.agg.IncTier(app.Tier)
	w.onProcessed(app.Tier)
	w.publishResult(ctx, log, domain.SuccessResult(app.ID))

	log.Info("application processed")
}

func (w *Worker) publishResult(ctx context.Context, log *zap.Logger, res domain.Result) {
	if err := w.publisher.PublishResult(ctx, res); err != nil {
		log.Error("result publish failed", zap.Error(err))
	}
}
