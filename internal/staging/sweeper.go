package staging

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired entries from the store. Lazy expiry on
// Get covers entries that are read back; the sweeper is the safety net for
// write-once-never-read entries that would otherwise leak memory forever.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(store *Store, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Run ticks every interval and sweeps expired entries.
// Stops cleanly when ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("cleanup sweeper started", zap.Duration("interval", sw.interval))

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("cleanup sweeper stopping")
			return
		case <-ticker.C:
			if removed := sw.store.removeExpired(); removed > 0 {
				sw.logger.Info("swept expired staged files", zap.Int("count", removed))
			}
		}
	}
}
