package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/errors"
)

func TestTokenBucketLimiter_Burst(t *testing.T) {
	// 60 req/min = 1 req/sec, burst 2
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 60, 2)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
	assert.InDelta(t, 60.0, limiter.Limit(), 1e-9)
}

func TestTokenBucketLimiter_WaitRefills(t *testing.T) {
	// 1200 req/min = 20 req/sec, burst 1
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 1200, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestTokenBucketLimiter_ContextCancellation(t *testing.T) {
	// 6 req/min = one token every 10s
	limiter := NewTokenBucketLimiter(ProviderNameOpenAI, 6, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNormalizeBurst(t *testing.T) {
	assert.Equal(t, 5, normalizeBurst(500, 5))
	assert.Equal(t, 50, normalizeBurst(500, 0))
	assert.Equal(t, 1, normalizeBurst(6, 0))
}

func TestNoOpLimiter(t *testing.T) {
	limiter := NewNoOpLimiter()
	assert.NoError(t, limiter.Wait(context.Background()))
	assert.True(t, limiter.Allow())
	assert.Equal(t, float64(-1), limiter.Limit())
}

func TestRateLimiterFactory(t *testing.T) {
	factory := NewRateLimiterFactory(nil)

	assert.IsType(t, &NoOpLimiter{}, factory.Create(ProviderNameOpenAI, RateLimitConfig{}))
	assert.IsType(t, &TokenBucketLimiter{}, factory.Create(ProviderNameOpenAI, RateLimitConfig{ReqPerMinute: 60, Burst: 5}))
}

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{Provider: ProviderNameOpenAI, Limit: 500, Err: context.Canceled}
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "500 req/min")
	assert.True(t, errors.Is(err, context.Canceled))
}
