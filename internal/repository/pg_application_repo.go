package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

type pgApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewPgApplicationRepository returns an ApplicationRepository backed by the
// processor schema's stored functions.
func NewPgApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &pgApplicationRepository{pool: pool}
}

// Insert calls processor.f_insert_application. The function returns false
// for a duplicate id, which is how redeliveries off the bus stay idempotent:
// a replayed application is counted as an attempt but never creates a second
// record.
func (r *pgApplicationRepository) Insert(ctx context.Context, app *domain.Application) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT processor.f_insert_application($1, $2, $3, $4, $5, $6)`,
		app.ID, app.Weight, app.Payload, app.Files, app.Tier, app.CreatedAt,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("insert application %s: %w", app.ID, err)
	}
	return ok, nil
}

// UpdateStatus calls processor.f_update_application_status, stamping the
// terminal transition with the current UTC time.
func (r *pgApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, errorMessage *string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT processor.f_update_application_status($1, $2, $3, $4)`,
		id, status, errorMessage, time.Now().UTC(),
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", id, err)
	}
	return ok, nil
}

func (r *pgApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, weight, payload, files, tier, status, error_message, created_at, processed_at
		 FROM processor.f_get_application_by_id($1)`, id)

	var app domain.Application
	err := row.Scan(
		&app.ID, &app.Weight, &app.Payload, &app.Files, &app.Tier,
		&app.Status, &app.ErrorMessage, &app.CreatedAt, &app.ProcessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &app, nil
}
