package redis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/CardShopGo/internal/domain"
	apperrors "github.com/utafrali/CardShopGo/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewCartRepository(client, 30*24*time.Hour, logger)
	return repo, mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		Key: "cart-key-001",
		Items: []domain.CartItem{
			{
				CardID:   "card-1",
				Name:     "Charizard Holo 1st Edition",
				Price:    249900,
				ImageURL: "https://img.example.com/charizard.jpg",
				Quantity: 1,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	require.NoError(t, mr.Set("cart:"+cart.Key, string(data)))

	got, err := repo.Get(context.Background(), cart.Key)
	require.NoError(t, err)
	assert.Equal(t, cart.Key, got.Key)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "card-1", got.Items[0].CardID)
	assert.Equal(t, int64(249900), got.Items[0].Price)
	assert.Equal(t, 1, got.Items[0].Quantity)
}

func TestCartRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nonexistent-key")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartRepository_Get_CorruptPayloadHydratesEmpty(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, mr.Set("cart:key-bad", "{{not-valid-json"))

	// A corrupt stored value yields a fresh empty cart, not an error.
	got, err := repo.Get(context.Background(), "key-bad")
	require.NoError(t, err)
	assert.Equal(t, "key-bad", got.Key)
	assert.Empty(t, got.Items)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestCartRepository_Save_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	err := repo.Save(context.Background(), cart)
	require.NoError(t, err)

	assert.True(t, mr.Exists("cart:"+cart.Key))

	raw, err := mr.Get("cart:" + cart.Key)
	require.NoError(t, err)

	var stored domain.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, cart.Key, stored.Key)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "card-1", stored.Items[0].CardID)
}

func TestCartRepository_Save_PersistedItemShape(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	raw, err := mr.Get("cart:" + cart.Key)
	require.NoError(t, err)

	// Stored items keep the compact client-facing field names.
	var stored struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored.Items, 1)
	assert.Contains(t, stored.Items[0], "id")
	assert.Contains(t, stored.Items[0], "imageUrl")
	assert.Contains(t, stored.Items[0], "quantity")
}

func TestCartRepository_Save_TTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))

	ttl := mr.TTL("cart:" + cart.Key)
	assert.True(t, ttl > 29*24*time.Hour, "expected TTL > 29d, got %v", ttl)
	assert.True(t, ttl <= 30*24*time.Hour, "expected TTL <= 30d, got %v", ttl)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	require.NoError(t, repo.Save(context.Background(), cart))
	assert.True(t, mr.Exists("cart:"+cart.Key))

	err := repo.Delete(context.Background(), cart.Key)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:"+cart.Key))
}

func TestCartRepository_Delete_NonExistent(t *testing.T) {
	repo, _ := setupTestRedis(t)

	err := repo.Delete(context.Background(), "nonexistent-key")
	assert.NoError(t, err)
}
