package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter guards expensive remote operations with a fixed-window call
// ceiling per (resource, operation) key.
type Limiter interface {
	Allow(ctx context.Context, resource, operation string, maxCalls int, window time.Duration) (bool, error)
}

// RedisLimiter implements Limiter on Redis. The check and the increment
// run in a single Lua script so two overlapping runs can never both pass
// a check that should have blocked the second.
type RedisLimiter struct {
	redis *redis.Client

	burstScript *redis.Script
}

// Lua script for the atomic check-and-increment. The counter is only
// incremented when the ceiling has not been reached; the key TTL equals
// the window, so the counter resets lazily on the first check after expiry.
const burstLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")

if current >= limit then
    return {0, current}
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end

return {1, newVal}
`

// NewRedisLimiter creates a limiter with a pre-compiled Lua script
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		redis:       client,
		burstScript: redis.NewScript(burstLuaScript),
	}
}

// Allow records one usage unit and returns true if the ceiling for
// (resource, operation) has not been reached within the current window.
// Returns false, with no side effect, once the ceiling is hit.
func (l *RedisLimiter) Allow(ctx context.Context, resource, operation string, maxCalls int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("burst:%s:%s", resource, operation)

	ttl := int(window / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	result, err := l.burstScript.Run(ctx, l.redis, []string{key}, maxCalls, ttl).Slice()
	if err != nil {
		return false, fmt.Errorf("burst limit check failed: %w", err)
	}

	allowed, ok := result[0].(int64)
	if !ok {
		return false, fmt.Errorf("burst limit check returned unexpected type %T", result[0])
	}

	return allowed == 1, nil
}

// Usage returns the current counter for (resource, operation), zero if
// the window has expired.
func (l *RedisLimiter) Usage(ctx context.Context, resource, operation string) (int64, error) {
	key := fmt.Sprintf("burst:%s:%s", resource, operation)
	n, err := l.redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("burst usage read failed: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.redis.Close()
}
