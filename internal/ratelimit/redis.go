package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:login:"

// hitScript prunes, checks and records an attempt in one atomic step.
// Scores are unix milliseconds.
var hitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisStore shares attempt counters between processes.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// WithClock overrides the time source.
func (s *RedisStore) WithClock(now func() time.Time) *RedisStore {
	s.now = now
	return s
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.now().UnixMilli()
	windowMS := window.Milliseconds()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())
	vals, err := hitScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, now, windowMS, limit, member).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script reply %v", vals)
	}
	res := Result{Allowed: vals[0] == 1, Count: int(vals[1])}
	if !res.Allowed {
		res.RetryAfter = time.Duration(vals[2]+windowMS-now) * time.Millisecond
	}
	return res, nil
}

// Reset forgets all attempts for key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

var _ Store = (*RedisStore)(nil)
