package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDedupStore(t *testing.T) (*DedupStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDedupStore(client, time.Hour), mr
}

func TestDedupStore_AddAndContains(t *testing.T) {
	store, mr := setupDedupStore(t)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "stripe:evt_1"))

	seen, err = store.Contains(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	// Keys carry the provider-qualified event id.
	assert.True(t, mr.Exists("webhook:event:stripe:evt_1"))

	// The same event id from another provider stays unseen.
	seen, err = store.Contains(ctx, "paypal:evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupStore_EntryExpires(t *testing.T) {
	store, mr := setupDedupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "stripe:evt_1"))

	mr.FastForward(2 * time.Hour)

	seen, err := store.Contains(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupStore_AddIsIdempotent(t *testing.T) {
	store, _ := setupDedupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "stripe:evt_1"))
	require.NoError(t, store.Add(ctx, "stripe:evt_1"))

	seen, err := store.Contains(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupStore_ReAddKeepsOriginalRetentionWindow(t *testing.T) {
	store, mr := setupDedupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "stripe:evt_1"))

	// A late duplicate must not extend the window past the first recording.
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Add(ctx, "stripe:evt_1"))

	mr.FastForward(31 * time.Minute)
	seen, err := store.Contains(ctx, "stripe:evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
}
