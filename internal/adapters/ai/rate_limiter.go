package ai

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"finassist/pkg/errors"
)

// RateLimiter throttles outbound LLM requests.
type RateLimiter interface {
	// Wait blocks until request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if request can proceed without blocking.
	Allow() bool

	// Limit returns current rate limit (requests per minute).
	Limit() float64
}

// TokenBucketLimiter is an in-process token bucket over x/time/rate.
type TokenBucketLimiter struct {
	limiter  *rate.Limiter
	provider ProviderName
}

// NewTokenBucketLimiter creates a limiter allowing reqPerMinute with the given burst.
// A non-positive burst defaults to 10% of the per-minute rate.
func NewTokenBucketLimiter(provider ProviderName, reqPerMinute float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		limiter:  rate.NewLimiter(rate.Limit(reqPerMinute/60.0), normalizeBurst(reqPerMinute, burst)),
		provider: provider,
	}
}

func normalizeBurst(reqPerMinute float64, burst int) int {
	if burst > 0 {
		return burst
	}
	burst = int(reqPerMinute / 10)
	if burst < 1 {
		burst = 1
	}
	return burst
}

// Wait blocks until a token is available or context is cancelled.
func (l *TokenBucketLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "rate limiter wait cancelled for provider %s", l.provider)
		}
		// rate.Limiter refuses up front when the deadline is shorter than the wait
		return errors.Wrapf(context.DeadlineExceeded, "rate limiter wait for provider %s: %v", l.provider, err)
	}
	return nil
}

// Allow consumes a token if one is available.
func (l *TokenBucketLimiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the rate limit in requests per minute.
func (l *TokenBucketLimiter) Limit() float64 {
	return float64(l.limiter.Limit()) * 60.0
}

// NoOpLimiter never blocks. Used when rate limiting is disabled and in tests.
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

func (l *NoOpLimiter) Wait(context.Context) error { return nil }

func (l *NoOpLimiter) Allow() bool { return true }

// Limit returns -1 to indicate unlimited.
func (l *NoOpLimiter) Limit() float64 { return -1 }

// RateLimitConfig contains rate limit configuration for a provider.
type RateLimitConfig struct {
	ReqPerMinute float64
	Burst        int
}

// Enabled reports whether the config limits anything
func (c RateLimitConfig) Enabled() bool {
	return c.ReqPerMinute > 0
}

// RateLimiterFactory creates limiters, shared through Redis when a client is given.
type RateLimiterFactory struct {
	redisClient *redis.Client
}

// NewRateLimiterFactory creates a factory. A nil client yields in-process limiters,
// which is enough for a single instance.
func NewRateLimiterFactory(redisClient *redis.Client) *RateLimiterFactory {
	return &RateLimiterFactory{redisClient: redisClient}
}

// Create creates a rate limiter for the specified provider.
func (f *RateLimiterFactory) Create(provider ProviderName, cfg RateLimitConfig) RateLimiter {
	if !cfg.Enabled() {
		return NewNoOpLimiter()
	}
	if f.redisClient != nil {
		return NewRedisRateLimiter(f.redisClient, provider, cfg.ReqPerMinute, cfg.Burst)
	}
	return NewTokenBucketLimiter(provider, cfg.ReqPerMinute, cfg.Burst)
}

// RateLimitError wraps rate limit related errors with provider context.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error for provider %s (limit: %.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}
