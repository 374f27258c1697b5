// Package staging implements the in-memory temporal file store. Files
// uploaded alongside an application wait here until they are promoted to
// durable object storage or expire.
package staging

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one staged file. Entries are immutable after creation: they are
// removed by explicit promotion-delete or by expiry, never updated.
type Entry struct {
	ID            string
	ApplicationID string
	Filename      string
	ContentType   string
	Content       []byte
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Store is a TTL map keyed by generated file id, safe for concurrent use.
//
// Expiry is enforced twice: lazily on Get (an expired entry reads as absent
// and is removed on the spot) and by the Sweeper, which catches entries that
// were written but never read back.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	logger  *zap.Logger

	// now is swappable so expiry tests do not have to sleep.
	now func() time.Time
}

func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save stages the file and returns its generated id.
func (s *Store) Save(applicationID, filename, contentType string, content []byte) string {
	now := s.now()
	entry := Entry{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		Filename:      filename,
		ContentType:   contentType,
		Content:       content,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	s.logger.Info("file staged",
		zap.String("file_id", entry.ID),
		zap.String("application_id", applicationID),
		zap.Int("size", len(content)),
		zap.Time("expires_at", entry.ExpiresAt),
	)
	return entry.ID
}

// Get returns the staged entry, or false if it does not exist or has expired.
// An expired entry is removed as a side effect.
func (s *Store) Get(fileID string) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[fileID]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	if entry.ExpiresAt.Before(s.now()) {
		s.logger.Warn("staged file expired on read", zap.String("file_id", fileID))
		s.Delete(fileID)
		return Entry{}, false
	}
	return entry, true
}

// Delete removes the entry if present. Deleting an absent id is a no-op.
func (s *Store) Delete(fileID string) {
	s.mu.Lock()
	delete(s.entries, fileID)
	s.mu.Unlock()
}

// Len reports the number of entries currently held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// removeExpired scans all entries and deletes any past expiry, returning the
// number removed. Called by the Sweeper.
func (s *Store) removeExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.entries {
		if entry.ExpiresAt.Before(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
