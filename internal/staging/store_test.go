package staging

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStore_SaveAndGet(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())

	id := s.Save("app-1", "resume.pdf", "application/pdf", []byte("content"))
	if id == "" {
		t.Fatal("expected a generated file id")
	}

	entry, ok := s.Get(id)
	if !ok {
		t.Fatal("expected staged entry to be found")
	}
	if entry.ApplicationID != "app-1" || entry.Filename != "resume.pdf" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if string(entry.Content) != "content" {
		t.Fatalf("unexpected content: %q", entry.Content)
	}
	if !entry.ExpiresAt.Equal(entry.CreatedAt.Add(time.Minute)) {
		t.Fatalf("expiry not ttl past creation: %v vs %v", entry.ExpiresAt, entry.CreatedAt)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())
	if _, ok := s.Get("no-such-id"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestStore_ExpiryOnGet(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())
	id := s.Save("app-1", "a.txt", "text/plain", []byte("x"))

	// Jump the clock past the ttl.
	s.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }

	if _, ok := s.Get(id); ok {
		t.Fatal("expected expired entry to read as absent")
	}
	if s.Len() != 0 {
		t.Fatalf("expected expired entry to be removed, %d left", s.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())
	id := s.Save("app-1", "a.txt", "text/plain", []byte("x"))

	s.Delete(id)
	if _, ok := s.Get(id); ok {
		t.Fatal("expected deleted entry to be gone")
	}

	// Deleting again is a no-op.
	s.Delete(id)
}

func TestStore_RemoveExpired(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())
	keep := s.Save("app-1", "fresh.txt", "text/plain", []byte("x"))

	s.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Minute) }
	s.Save("app-1", "stale.txt", "text/plain", []byte("y"))
	s.now = func() time.Time { return time.Now().UTC() }

	if removed := s.removeExpired(); removed != 1 {
		t.Fatalf("removed %d entries, want 1", removed)
	}
	if _, ok := s.Get(keep); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}

func TestSweeper_RemovesExpiredEntries(t *testing.T) {
	s := NewStore(time.Minute, zap.NewNop())

	s.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Minute) }
	s.Save("app-1", "stale.txt", "text/plain", []byte("y"))
	s.now = func() time.Time { return time.Now().UTC() }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sweeper := NewSweeper(s, 5*time.Millisecond, zap.NewNop())
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
