package repository

import (
	"context"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// ApplicationRepository defines the durable record store operations the
// worker pool drives. The store exposes fixed stored functions rather than
// raw tables; the pgx implementation is in pg_application_repo.go and tests
// use a hand-written mock (mock_application_repo.go).
//
// Insert and UpdateStatus report rejection through the bool, reserving the
// error for transport-level failures, mirroring the stored functions'
// success-flag returns.
type ApplicationRepository interface {
	Insert(ctx context.Context, app *domain.Application) (bool, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, errorMessage *string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Application, error)
}
