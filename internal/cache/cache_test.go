package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rockaxx/freegames/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "https://game3rb.com/?s=hades"
	testBody = "<html>hades</html>"
	testTTL  = 5 * time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_HitWithinTTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, testBody, testTTL))
	clock.Advance(testTTL - time.Second)

	body, ok, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testBody, body)
}

func TestMemoryStore_NoHitAfterTTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, testBody, testTTL))

	clock.Advance(testTTL)
	_, ok, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, ok, "entry exactly TTL old must not be served")

	clock.Advance(time.Millisecond)
	_, ok, _ = store.Get(ctx, testKey)
	assert.False(t, ok)

	assert.Equal(t, 1, store.Len(), "expired entries are ignored, not swept")
	assert.Equal(t, 1, store.Purge())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_RefetchReplacesEntry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, "old", testTTL))
	clock.Advance(testTTL + time.Second)
	require.NoError(t, store.Set(ctx, testKey, "new", testTTL))

	body, ok, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", body)
}

func TestRedisStore_RoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := cache.NewRedisStore(client, "test:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, testBody, testTTL))
	assert.True(t, mr.Exists("test:"+testKey))

	body, ok, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testBody, body)

	mr.FastForward(testTTL + time.Second)

	_, ok, err = store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_MissingKey(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := cache.NewRedisStore(client, "test:")
	require.NoError(t, store.Ping(context.Background()))

	_, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
