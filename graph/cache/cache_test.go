package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetPutInvalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	entry := cache.Entry{Output: []byte(`{"msg":"hi"}`), CachedAt: time.Now()}
	require.NoError(t, c.Put(ctx, "k1", entry))

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"msg":"hi"}`, string(got.Output))

	require.NoError(t, c.Invalidate(ctx, "k1"))
	_, ok, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	now := time.Now()

	require.NoError(t, c.Put(ctx, "expired", cache.Entry{Output: []byte("1"), CachedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, c.Put(ctx, "fresh", cache.Entry{Output: []byte("2"), CachedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.Equal(t, 2, c.Len())

	_, ok, err := c.Get(ctx, "expired")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, c.Len(), "lazy expiry on Get should remove the stale entry")

	_, ok, err = c.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryCacheSweep(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	now := time.Now()

	require.NoError(t, c.Put(ctx, "a", cache.Entry{ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, c.Put(ctx, "b", cache.Entry{ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, c.Put(ctx, "c", cache.Entry{}))

	removed := c.Sweep(now)
	require.Equal(t, 2, removed)
	require.Equal(t, 1, c.Len())
}
