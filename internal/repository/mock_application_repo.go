package repository

import (
	"context"
	"sync"
	"time"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// MockApplicationRepository is a hand-written, in-memory implementation of
// ApplicationRepository used in unit tests. No mock-generation library needed.
type MockApplicationRepository struct {
	mu           sync.RWMutex
	applications map[string]*domain.Application
	insertCalls  int

	// Optional overrides, set in tests to simulate failure paths.
	InsertErr       error
	InsertRejected  bool
	UpdateStatusErr error
	GetByIDErr      error
}

func NewMockApplicationRepository() *MockApplicationRepository {
	return &MockApplicationRepository{applications: make(map[string]*domain.Application)}
}

// Insert mimics the stored function: a duplicate id returns false rather
// than an error, so replay tests can assert idempotent behaviour.
func (m *MockApplicationRepository) Insert(_ context.Context, app *domain.Application) (bool, error) {
	if m.InsertErr != nil {
		return false, m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.InsertRejected {
		return false, nil
	}
	if _, exists := m.applications[app.ID]; exists {
		return false, nil
	}
	clone := *app
	clone.Status = domain.StatusReceived
	m.applications[app.ID] = &clone
	return true, nil
}

func (m *MockApplicationRepository) UpdateStatus(_ context.Context, id string, status domain.Status, errorMessage *string) (bool, error) {
	if m.UpdateStatusErr != nil {
		return false, m.UpdateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.applications[id]
	if !ok {
		return false, nil
	}
	app.Status = status
	app.ErrorMessage = errorMessage
	now := time.Now().UTC()
	app.ProcessedAt = &now
	return true, nil
}

func (m *MockApplicationRepository) GetByID(_ context.Context, id string) (*domain.Application, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

// InsertCalls reports how many times Insert was invoked, duplicates included.
func (m *MockApplicationRepository) InsertCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.insertCalls
}
