package guardrails

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/testsupport"
	"finassist/pkg/errors"
)

var clockStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type limiterFactory func(t *testing.T, limits Limits, clock *testsupport.FakeClock) SessionLimiter

func limiterBackends() map[string]limiterFactory {
	return map[string]limiterFactory{
		"memory": func(_ *testing.T, limits Limits, clock *testsupport.FakeClock) SessionLimiter {
			return NewMemoryLimiter(limits, clock.Now)
		},
		"redis": func(t *testing.T, limits Limits, clock *testsupport.FakeClock) SessionLimiter {
			client, _ := testsupport.NewRedisClient(t)
			return NewRedisLimiter(client, limits, clock.Now)
		},
	}
}

func TestSessionLimiter_MinuteWindow(t *testing.T) {
	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			limiter := newLimiter(t, Limits{PerMinute: 10, PerHour: 100}, clock)

			for i := 0; i < 10; i++ {
				require.NoError(t, limiter.Check(ctx, "s1"), "request %d", i+1)
				require.NoError(t, limiter.Record(ctx, "s1"))
				clock.Advance(time.Second)
			}

			err := limiter.Check(ctx, "s1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
			var limitErr *LimitError
			require.True(t, errors.As(err, &limitErr))
			assert.Equal(t, WindowMinute, limitErr.Window)
			assert.Equal(t, 10, limitErr.Limit)

			// other sessions are unaffected
			assert.NoError(t, limiter.Check(ctx, "s2"))

			clock.Advance(time.Minute)
			assert.NoError(t, limiter.Check(ctx, "s1"))
		})
	}
}

func TestSessionLimiter_HourWindow(t *testing.T) {
	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			limiter := newLimiter(t, Limits{PerMinute: 2, PerHour: 3}, clock)

			require.NoError(t, limiter.Record(ctx, "s1"))
			require.NoError(t, limiter.Record(ctx, "s1"))
			clock.Advance(2 * time.Minute)
			require.NoError(t, limiter.Check(ctx, "s1"))
			require.NoError(t, limiter.Record(ctx, "s1"))
			clock.Advance(2 * time.Minute)

			var limitErr *LimitError
			require.True(t, errors.As(limiter.Check(ctx, "s1"), &limitErr))
			assert.Equal(t, WindowHour, limitErr.Window)

			clock.Advance(time.Hour)
			assert.NoError(t, limiter.Check(ctx, "s1"))
		})
	}
}

func TestSessionLimiter_UsageAndTotals(t *testing.T) {
	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			limiter := newLimiter(t, DefaultLimits, clock)

			for i := 0; i < 3; i++ {
				require.NoError(t, limiter.Record(ctx, "old"))
			}
			clock.Advance(10 * time.Minute)
			for _, id := range []string{"a", "b"} {
				require.NoError(t, limiter.Record(ctx, id))
				require.NoError(t, limiter.Record(ctx, id))
			}
			clock.Advance(30 * time.Second)

			usage, err := limiter.Usage(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, SessionUsage{SessionID: "a", Total: 2, LastHour: 2, LastMinute: 2}, usage)

			totals, err := limiter.Totals(ctx)
			require.NoError(t, err)
			assert.Equal(t, Totals{Sessions: 3, Requests: 7, ActiveSessions: 2}, totals)

			require.NoError(t, limiter.Reset(ctx, "a"))
			usage, err = limiter.Usage(ctx, "a")
			require.NoError(t, err)
			assert.Zero(t, usage.Total)

			clock.Advance(time.Hour)
			totals, err = limiter.Totals(ctx)
			require.NoError(t, err)
			assert.Equal(t, Totals{}, totals)
		})
	}
}

func TestSessionLimiter_ReserveAndRelease(t *testing.T) {
	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			limiter := newLimiter(t, Limits{PerMinute: 3, PerHour: 100}, clock)

			var releases []ReleaseFunc
			for i := 0; i < 3; i++ {
				release, err := limiter.Reserve(ctx, "s1")
				require.NoError(t, err, "reservation %d", i+1)
				releases = append(releases, release)
			}

			_, err := limiter.Reserve(ctx, "s1")
			var limitErr *LimitError
			require.True(t, errors.As(err, &limitErr))
			assert.Equal(t, WindowMinute, limitErr.Window)

			require.NoError(t, releases[0](ctx))
			require.NoError(t, releases[0](ctx))

			usage, err := limiter.Usage(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 2, usage.LastMinute)

			_, err = limiter.Reserve(ctx, "s1")
			require.NoError(t, err)
			_, err = limiter.Reserve(ctx, "s1")
			assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
		})
	}
}

func TestSessionLimiter_ConcurrentReserve(t *testing.T) {
	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			limiter := newLimiter(t, Limits{PerMinute: 5, PerHour: 100}, clock)

			var (
				wg sync.WaitGroup
				ok atomic.Int32
			)
			for i := 0; i < 25; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := limiter.Reserve(ctx, "s1"); err == nil {
						ok.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(5), ok.Load())
		})
	}
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	client, server := testsupport.NewRedisClient(t)
	server.Close()

	limiter := NewRedisLimiter(client, DefaultLimits, nil)
	err := limiter.Check(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.False(t, errors.Is(err, errors.ErrRateLimitExceeded))
}
