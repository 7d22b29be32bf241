package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("shop-api")

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, "k", int64(42), time.Minute))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return now },
	}

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Second)

	got, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotContains(t, c.entries, "short")

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return now },
	}

	ok, err := c.SetNX(ctx, "k", "first", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "second", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	now = now.Add(2 * time.Second)
	ok, err = c.SetNX(ctx, "k", "third", time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "expired keys can be taken again")

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.SetNX(ctx, "k", "fourth", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_SetNXConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("shop-api")

	const workers = 16
	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := c.SetNX(ctx, "k", i, time.Minute); err == nil && ok {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, won.Load())
}

func TestGenerateKey(t *testing.T) {
	c := NewMemoryCache("shop-api")
	assert.Equal(t, "shop-api:place_order:abc", c.GenerateKey("place_order", "abc"))
}

// TestRedisCache runs against a live server when TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, closeFn, err := NewRedisCache(ctx, addr, "shop-api-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	key := c.GenerateKey("test", uuid.NewString())
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	ok, err := c.SetNX(ctx, key, 7, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, key, 8, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	require.NoError(t, c.Set(ctx, key, 9, time.Minute))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "9", got)

	require.NoError(t, c.Delete(ctx, key))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}
