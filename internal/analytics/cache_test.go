package analytics

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheVersionedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "summary")
	require.NoError(t, err)
	assert.Equal(t, "analytics:summary:1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, "summary")
	require.NoError(t, err)
	assert.Equal(t, "analytics:summary:2", key)
}

func TestCacheFetchJSONSetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, 30*time.Second)

	var out map[string]int
	err := cache.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return map[string]int{"a": 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, out)
	assert.Equal(t, 30*time.Second, mr.TTL("k"))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("k"))
}

func TestBumpOrphansEntriesAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	api := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	worker := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = api.Close()
		_ = worker.Close()
	})
	ctx := context.Background()
	apiCache := NewCache(api, time.Minute)
	workerCache := NewCache(worker, time.Minute)

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]int{"loads": loads}, nil
	}
	fetch := func(c *Cache) map[string]int {
		key, err := c.BuildKey(ctx, "summary")
		require.NoError(t, err)
		var out map[string]int
		require.NoError(t, c.FetchJSON(ctx, key, &out, loader))
		return out
	}

	assert.Equal(t, 1, fetch(workerCache)["loads"])
	assert.Equal(t, 1, fetch(apiCache)["loads"])

	require.NoError(t, apiCache.Bump(ctx))
	assert.Equal(t, 2, fetch(workerCache)["loads"])
	assert.Equal(t, 2, loads)
}
