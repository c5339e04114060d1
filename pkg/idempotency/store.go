package idempotency

import (
	"context"
	"sync"
	"time"
)

// Store records identifiers of already-processed events so that redelivery of
// the same event (at-least-once senders retry on timeout and 5xx) does not
// reapply side effects. Implementations must be safe for concurrent use.
type Store interface {
	// Contains returns true if the event ID has already been processed.
	Contains(ctx context.Context, eventID string) (bool, error)
	// Add marks an event ID as processed. Call it after successful processing.
	Add(ctx context.Context, eventID string) error
}

// MemoryStore is an in-memory Store. Suitable for development, tests, and
// single-instance deployments. Entries expire after the configured TTL to
// bound memory usage.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory store with the given TTL. Expired
// entries are lazily removed on access.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
	}
}

// Contains checks whether the event ID exists and has not expired.
func (s *MemoryStore) Contains(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	ts, exists := s.entries[eventID]
	s.mu.RUnlock()

	if !exists {
		return false, nil
	}

	if time.Since(ts) > s.ttl {
		s.mu.Lock()
		delete(s.entries, eventID)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// Add marks the event ID as processed with the current timestamp.
func (s *MemoryStore) Add(_ context.Context, eventID string) error {
	s.mu.Lock()
	s.entries[eventID] = time.Now()
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries in the store, including entries that may
// have expired but not yet been cleaned up.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
