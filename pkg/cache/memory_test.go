package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "symbols", []string{"BTCUSDT", "ETHUSDT"}, time.Minute))
	var got []string
	require.NoError(t, mc.Get(ctx, "symbols", &got))
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, got)

	require.NoError(t, mc.Delete(ctx, "symbols"))
	assert.ErrorIs(t, mc.Get(ctx, "symbols", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	now := time.Unix(1000, 0)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Second))
	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	now = now.Add(2 * time.Second)
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer mc.Close()
	now := time.Unix(1000, 0)
	mc.now = func() time.Time { now = now.Add(time.Millisecond); return now }
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.NoError(t, mc.Get(ctx, "a", &s))
	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
}

func TestMemoryCacheLock(t *testing.T) {
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "run", time.Minute)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "run"))
	ok, _ = mc.TryLock(ctx, "run", time.Minute)
	assert.True(t, ok)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "run:scheduled:202401010000", GenerateKeyWithParams("run", "scheduled", "202401010000"))
}
