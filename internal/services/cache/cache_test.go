package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestMemoryCache_SweepsUnreadExpiredKeys(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.sweepEvery = 4
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, key, "v", time.Minute))
	}
	assert.Equal(t, 3, c.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Set(ctx, "d", "v", time.Minute))

	assert.Equal(t, 1, c.Len(), "expired keys are dropped without being read")
	_, ok, _ := c.Get(ctx, "d")
	assert.True(t, ok)
}

func TestMemoryCache_ExpiredReadKeepsConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	start := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	now := start
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", "stale", time.Minute))

	// Refresh the key between the expired read and the eviction.
	now = start.Add(2 * time.Minute)
	refreshed := false
	c.now = func() time.Time {
		if !refreshed {
			refreshed = true
			require.NoError(t, c.Set(ctx, "k", "fresh", time.Hour))
		}
		return now
	}

	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)

	value, ok, _ := c.Get(ctx, "k")
	require.True(t, ok, "refreshed entry survives the eviction of the stale one")
	assert.Equal(t, "fresh", value)
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c := NewRedisCache("127.0.0.1:1", "")
	defer c.Close()

	_, ok, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "k", "v", time.Minute))
	assert.Error(t, c.Ping(ctx))
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	c := Open(context.Background(), "", "")
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)

	c = Open(context.Background(), "127.0.0.1:1", "")
	_, ok = c.(*MemoryCache)
	assert.True(t, ok, "unreachable redis falls back to memory")
}
