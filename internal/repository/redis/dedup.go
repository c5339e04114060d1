package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "webhook:event:"

// DedupStore implements idempotency.Store on Redis so webhook replay
// suppression survives restarts and is shared across replicas. Callers pass
// provider-qualified event ids, so keys take the form
// webhook:event:<provider>:<id>.
type DedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupStore creates a Redis-backed webhook dedup store.
func NewDedupStore(client *redis.Client, ttl time.Duration) *DedupStore {
	return &DedupStore{
		client: client,
		ttl:    ttl,
	}
}

// Contains reports whether the event id has been recorded and not yet expired.
func (s *DedupStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, dedupKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis check event: %w", err)
	}
	return n > 0, nil
}

// Add records the event id with the configured retention window. SETNX
// anchors the window at the first recording, so a late duplicate cannot
// extend it.
func (s *DedupStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.SetNX(ctx, dedupKeyPrefix+eventID, "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("redis record event: %w", err)
	}
	return nil
}
