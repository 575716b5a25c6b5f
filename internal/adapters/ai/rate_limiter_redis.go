package ai

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"finassist/pkg/errors"
)

// RedisRateLimiter is a token bucket shared by every instance through Redis.
type RedisRateLimiter struct {
	client   *redis.Client
	provider ProviderName
	rate     float64 // tokens per second
	burst    int
	key      string
	script   *redis.Script
	now      func() time.Time
}

// KEYS[1] bucket key; ARGV rate (tokens/s), burst, now (unix seconds, float).
// Returns 1 when a token was taken.
const luaTokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call('HMGET', key, 'tokens', 'last_update')
local tokens = tonumber(data[1])
local last_update = tonumber(data[2])

if not tokens then
    tokens = burst
    last_update = now
end

tokens = math.min(burst, tokens + math.max(0, now - last_update) * rate)

local allowed = 0
if tokens >= 1.0 then
    tokens = tokens - 1.0
    allowed = 1
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_update', tostring(now))
redis.call('EXPIRE', key, 3600)
return allowed
`

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client *redis.Client, provider ProviderName, reqPerMinute float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:   client,
		provider: provider,
		rate:     reqPerMinute / 60.0,
		burst:    normalizeBurst(reqPerMinute, burst),
		key:      "finassist:rate_limit:llm:" + provider.String(),
		script:   redis.NewScript(luaTokenBucketScript),
		now:      time.Now,
	}
}

// Wait blocks until a token is available or context is cancelled.
func (l *RedisRateLimiter) Wait(ctx context.Context) error {
	for {
		allowed, err := l.tryAcquire(ctx)
		if err != nil {
			return errors.Wrapf(err, "redis rate limiter for provider %s", l.provider)
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return &RateLimitError{
				Provider: l.provider,
				Limit:    l.Limit(),
				Err:      errors.Wrap(ctx.Err(), "rate limiter wait cancelled"),
			}
		case <-time.After(time.Duration(float64(time.Second) / l.rate)):
		}
	}
}

// Allow takes a token without blocking. Redis errors deny.
func (l *RedisRateLimiter) Allow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	allowed, err := l.tryAcquire(ctx)
	return err == nil && allowed
}

// Limit returns the rate limit in requests per minute.
func (l *RedisRateLimiter) Limit() float64 {
	return l.rate * 60.0
}

// Tokens returns the tokens currently stored in the bucket.
func (l *RedisRateLimiter) Tokens(ctx context.Context) (float64, error) {
	raw, err := l.client.HGet(ctx, l.key, "tokens").Result()
	if errors.Is(err, redis.Nil) {
		return float64(l.burst), nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read rate limiter bucket")
	}
	return strconv.ParseFloat(raw, 64)
}

// Reset clears the bucket.
func (l *RedisRateLimiter) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

func (l *RedisRateLimiter) tryAcquire(ctx context.Context) (bool, error) {
	now := float64(l.now().UnixNano()) / float64(time.Second)

	result, err := l.script.Run(ctx, l.client, []string{l.key}, l.rate, l.burst, now).Int()
	if err != nil {
		return false, errors.Wrap(err, "run token bucket script")
	}
	return result == 1, nil
}
