package stats

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Exporter receives the current snapshot on every reporter tick.
// The postgres implementation lives in the repository package; the zap-backed
// LogExporter below serves setups running without a database.
type Exporter interface {
	Export(ctx context.Context, snap Snapshot) error
}

// Reporter periodically hands the aggregator's snapshot to an exporter.
// An export failure is logged and retried on the next tick, never fatal.
type Reporter struct {
	agg      *Aggregator
	exporter Exporter
	interval time.Duration
	logger   *zap.Logger
}

func NewReporter(agg *Aggregator, exporter Exporter, interval time.Duration, logger *zap.Logger) *Reporter {
	return &Reporter{agg: agg, exporter: exporter, interval: interval, logger: logger}
}

// Run ticks every interval until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("statistics reporter started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("statistics reporter stopping")
			return
		case <-ticker.C:
			snap := r.agg.Snapshot()
			if err := r.exporter.Export(ctx, snap); err != nil {
				r.logger.Warn("statistics export failed", zap.Error(err))
			}
		}
	}
}

// LogExporter writes the snapshot to the log instead of a durable store.
type LogExporter struct {
	Logger *zap.Logger
}

func (e LogExporter) Export(_ context.Context, snap Snapshot) error {
	fields := []zap.Field{
		zap.Int64("processed", snap.TotalProcessed),
		zap.Int64("failed", snap.TotalFailed),
		zap.Int64("validation_errors", snap.TotalValidationErrors),
	}
	for tier, n := range snap.ByTier {
		fields = append(fields, zap.Int64("tier_"+string(tier), n))
	}
	e.Logger.Info("processing statistics", fields...)
	return nil
}
