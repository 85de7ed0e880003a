package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// tokenBucketScript refills and consumes one token atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity (max tokens)
// ARGV[3] = current unix timestamp (seconds)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = tokens + elapsed * rate
    if tokens > capacity then
        tokens = capacity
    end
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

-- Expire in 60s so idle buckets self-clean
redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return allowed
`)

// RedisRateLimiter shares token buckets across instances through Redis.
type RedisRateLimiter struct {
	client *redis.Client
	rps    float64
	burst  int
	logger zerolog.Logger
}

// NewRedisRateLimiter connects to addr. rps and burst apply per key.
func NewRedisRateLimiter(addr string, rps float64, burst int, logger zerolog.Logger) *RedisRateLimiter {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisRateLimiter{
		client: client,
		rps:    rps,
		burst:  burst,
		logger: logger.With().Str("component", "rate_limiter").Logger(),
	}
}

// Allow consumes one token for key. An unreachable Redis fails open so
// the API keeps serving without the shared limit.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	now := float64(time.Now().UnixMicro()) / 1e6

	res, err := tokenBucketScript.Run(ctx, rl.client,
		[]string{"ratelimit:" + key}, rl.rps, rl.burst, now).Result()
	if err != nil {
		rl.logger.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return true
	}

	allowed, ok := res.(int64)
	if !ok {
		return true
	}
	return allowed == 1
}

// Close releases the Redis connection.
func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}
