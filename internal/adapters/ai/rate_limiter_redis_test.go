package ai

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/testsupport"
)

func newTestRedisLimiter(t *testing.T, reqPerMinute float64, burst int) (*RedisRateLimiter, *testsupport.FakeClock) {
	t.Helper()
	client, _ := testsupport.NewRedisClient(t)
	clock := testsupport.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	limiter := NewRedisRateLimiter(client, ProviderNameOpenAI, reqPerMinute, burst)
	limiter.now = clock.Now
	return limiter, clock
}

func TestRedisRateLimiter_BurstAndRefill(t *testing.T) {
	limiter, clock := newTestRedisLimiter(t, 60, 2)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	clock.Advance(time.Second)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestRedisRateLimiter_SharedAcrossInstances(t *testing.T) {
	client, _ := testsupport.NewRedisClient(t)
	clock := testsupport.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	a := NewRedisRateLimiter(client, ProviderNameOpenAI, 60, 3)
	b := NewRedisRateLimiter(client, ProviderNameOpenAI, 60, 3)
	a.now, b.now = clock.Now, clock.Now

	assert.True(t, a.Allow())
	assert.True(t, b.Allow())
	assert.True(t, a.Allow())
	assert.False(t, b.Allow())
}

func TestRedisRateLimiter_ConcurrentNeverExceedsBurst(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 60, 10)

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := limiter.tryAcquire(context.Background())
			if err == nil && ok {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&allowed))
}

func TestRedisRateLimiter_WaitCancelled(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 6, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, ProviderNameOpenAI, rlErr.Provider)
}

func TestRedisRateLimiter_TokensAndReset(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, 60, 4)
	ctx := context.Background()

	tokens, err := limiter.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, tokens)

	require.True(t, limiter.Allow())
	tokens, err = limiter.Tokens(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, tokens, 1e-9)

	require.NoError(t, limiter.Reset(ctx))
	tokens, err = limiter.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, tokens)
}

func TestRateLimiterFactory_WithRedis(t *testing.T) {
	client, _ := testsupport.NewRedisClient(t)
	factory := NewRateLimiterFactory(client)

	assert.IsType(t, &RedisRateLimiter{}, factory.Create(ProviderNameOpenAI, RateLimitConfig{ReqPerMinute: 60}))
	assert.IsType(t, &NoOpLimiter{}, factory.Create(ProviderNameOpenAI, RateLimitConfig{}))
}
