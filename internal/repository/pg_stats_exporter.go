package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/applyhub/priority-pipeline/internal/stats"
)

// PgStatsExporter persists periodic statistics snapshots through
// processor.f_save_statistics. Per-tier counts travel as a JSON document so
// new tiers never need a schema change.
type PgStatsExporter struct {
	pool *pgxpool.Pool
}

func NewPgStatsExporter(pool *pgxpool.Pool) *PgStatsExporter {
	return &PgStatsExporter{pool: pool}
}

func (e *PgStatsExporter) Export(ctx context.Context, snap stats.Snapshot) error {
	byTier, err := json.Marshal(snap.ByTier)
	if err != nil {
		return fmt.Errorf("marshal tier counts: %w", err)
	}

	_, err = e.pool.Exec(ctx,
		`SELECT processor.f_save_statistics($1, $2, $3, $4, $5)`,
		snap.TotalProcessed, snap.TotalFailed, snap.TotalValidationErrors,
		byTier, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}
	return nil
}

// compile-time check that PgStatsExporter implements stats.Exporter
var _ stats.Exporter = (*PgStatsExporter)(nil)
