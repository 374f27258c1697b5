package stats

import (
	"sync"
	"sync/atomic"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// Aggregator holds the processing counters mutated concurrently by every
// worker in the pool. The three totals are plain atomics; the per-tier map
// sits behind a mutex because tiers are created lazily on first increment.
//
// The aggregator is injected explicitly into every component that reports
// into it; there is no package-level instance.
type Aggregator struct {
	processed        atomic.Int64
	failed           atomic.Int64
	validationFailed atomic.Int64

	mu     sync.Mutex
	byTier map[domain.Tier]int64
}

func NewAggregator() *Aggregator {
	return &Aggregator{byTier: make(map[domain.Tier]int64)}
}

func (a *Aggregator) IncProcessed() { a.processed.Add(1) }

func (a *Aggregator) IncFailed() { a.failed.Add(1) }

func (a *Aggregator) IncValidationFailed() { a.validationFailed.Add(1) }

func (a *Aggregator) IncTier(tier domain.Tier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byTier[tier]++
}

// Snapshot is an eventually-consistent read of the counters. Under concurrent
// increments the totals and the per-tier map may be observed at slightly
// different instants, but no counter ever decreases.
type Snapshot struct {
	TotalProcessed        int64                 `json:"total_processed"`
	TotalFailed           int64                 `json:"total_failed"`
	TotalValidationErrors int64                 `json:"total_validation_errors"`
	ByTier                map[domain.Tier]int64 `json:"by_tier"`
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	byTier := make(map[domain.Tier]int64, len(a.byTier))
	for tier, n := range a.byTier {
		byTier[tier] = n
	}
	a.mu.Unlock()

	return Snapshot{
		TotalProcessed:        a.processed.Load(),
		TotalFailed:           a.failed.Load(),
		TotalValidationErrors: a.validationFailed.Load(),
		ByTier:                byTier,
	}
}
