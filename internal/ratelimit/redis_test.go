package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, clock *fakeClock) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client).WithClock(clock.Now), srv
}

func TestRedisStoreDeniesSixthAttempt(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store, srv := newRedisStore(t, clock)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		res, err := store.Hit(ctx, "ada@x.com:10.0.0.1", 5, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, i, res.Count)
		clock.Advance(time.Minute)
	}

	res, err := store.Hit(ctx, "ada@x.com:10.0.0.1", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 10*time.Minute, res.RetryAfter)

	members, err := srv.ZMembers(redisKeyPrefix + "ada@x.com:10.0.0.1")
	require.NoError(t, err)
	assert.Len(t, members, 5, "denied attempts are not recorded")
	assert.True(t, srv.TTL(redisKeyPrefix+"ada@x.com:10.0.0.1") > 0)
}

func TestRedisStoreWindowSlidesAndResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store, _ := newRedisStore(t, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Hit(ctx, "k", 5, 15*time.Minute)
		require.NoError(t, err)
	}
	res, err := store.Hit(ctx, "k", 5, 15*time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	clock.Advance(16 * time.Minute)
	res, err = store.Hit(ctx, "k", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Count)

	require.NoError(t, store.Reset(ctx, "k"))
	res, err = store.Hit(ctx, "k", 5, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestRedisStoreConcurrentCapIsExact(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	store, _ := newRedisStore(t, clock)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Hit(ctx, "burst", 5, time.Minute)
			if err != nil || !res.Allowed {
				return
			}
			mu.Lock()
			allowed++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

func TestLimiterDefaultsAndKey(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 0, 0)
	assert.Equal(t, DefaultWindow, l.Window())
	assert.Equal(t, "ada@x.com:10.0.0.1", LoginKey(" ada@x.com ", "10.0.0.1"))

	ctx := context.Background()
	for i := 0; i < DefaultMaxAttempts; i++ {
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
