package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/adapters/marketdata"
	"finassist/internal/agents"
	"finassist/internal/guardrails"
	"finassist/internal/testsupport"
	"finassist/pkg/errors"
)

// indexSource is a goroutine-safe IndexSource for scheduler runs.
type indexSource struct {
	calls   atomic.Int32
	err     error
	panics  bool
	release chan struct{} // when set, Indices blocks until it is closed
}

func (s *indexSource) Indices(context.Context) ([]marketdata.IndexQuote, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.panics {
		panic("quote feed returned garbage")
	}
	if s.err != nil {
		return nil, s.err
	}
	return []marketdata.IndexQuote{{Name: "S&P 500", Symbol: "^GSPC"}}, nil
}

type agentUsageStub []agents.AgentUsage

func (s agentUsageStub) Usage() []agents.AgentUsage { return s }

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler()

	assert.Equal(t, defaultStopTimeout, scheduler.stopTimeout)
	assert.False(t, scheduler.IsRunning())
	assert.Empty(t, scheduler.GetWorkers())
}

func TestScheduler_RegistersJobs(t *testing.T) {
	scheduler := NewScheduler()
	limiter := guardrails.NewMemoryLimiter(guardrails.DefaultLimits, nil)

	scheduler.RegisterWorker(NewIndexWarmer(&indexSource{}, 5*time.Minute, true))
	scheduler.RegisterWorker(NewUsageReporter(limiter, agentUsageStub{}, 15*time.Minute, true))

	workers := scheduler.GetWorkers()
	require.Len(t, workers, 2)
	assert.Equal(t, "market_indices", workers[0].Name())
	assert.Equal(t, 5*time.Minute, workers[0].Interval())
	assert.Equal(t, "usage_report", workers[1].Name())
	assert.Equal(t, 15*time.Minute, workers[1].Interval())
}

func TestScheduler_WarmsIndicesOnStartAndInterval(t *testing.T) {
	source := &indexSource{}
	warmer := NewIndexWarmer(source, 20*time.Millisecond, true)

	scheduler := NewScheduler()
	scheduler.RegisterWorker(warmer)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	require.Eventually(t, func() bool { return source.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	health := warmer.Health()
	assert.GreaterOrEqual(t, health.RunCount, int64(3))
	assert.Zero(t, health.ErrorCount)
	assert.NoError(t, health.LastError)
	assert.False(t, health.LastRun.IsZero())
}

func TestScheduler_SkipsDisabledJobs(t *testing.T) {
	source := &indexSource{}
	warmer := NewIndexWarmer(source, 10*time.Millisecond, false)

	scheduler := NewScheduler()
	scheduler.RegisterWorker(warmer)
	require.NoError(t, scheduler.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Zero(t, source.calls.Load())
	assert.Zero(t, warmer.Health().RunCount)
}

func TestScheduler_StartStopErrors(t *testing.T) {
	scheduler := NewScheduler()

	err := scheduler.Stop()
	assert.True(t, errors.Is(err, errors.ErrInternal))

	require.NoError(t, scheduler.Start(context.Background()))
	err = scheduler.Start(context.Background())
	assert.True(t, errors.Is(err, errors.ErrInternal))

	// registration is closed while running
	scheduler.RegisterWorker(NewIndexWarmer(&indexSource{}, time.Hour, true))
	assert.Empty(t, scheduler.GetWorkers())

	require.NoError(t, scheduler.Stop())
}

func TestScheduler_StopTimeout(t *testing.T) {
	source := &indexSource{release: make(chan struct{})}
	defer close(source.release)

	scheduler := NewScheduler()
	scheduler.stopTimeout = 50 * time.Millisecond
	scheduler.RegisterWorker(NewIndexWarmer(source, time.Hour, true))

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	err := scheduler.Stop()
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.False(t, scheduler.IsRunning())
}

func TestScheduler_RecordsFailures(t *testing.T) {
	source := &indexSource{err: errors.Wrap(errors.ErrUnavailable, "yahoo chart")}
	warmer := NewIndexWarmer(source, time.Hour, true)

	scheduler := NewScheduler()
	scheduler.RegisterWorker(warmer)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool { return warmer.Health().RunCount == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())

	health := warmer.Health()
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.True(t, errors.Is(health.LastError, errors.ErrUnavailable))
}

func TestScheduler_RecoversPanics(t *testing.T) {
	warmer := NewIndexWarmer(&indexSource{panics: true}, time.Hour, true)

	scheduler := NewScheduler()
	scheduler.RegisterWorker(warmer)

	require.NoError(t, scheduler.Start(context.Background()))
	require.Eventually(t, func() bool { return warmer.Health().RunCount == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())

	health := warmer.Health()
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.True(t, errors.Is(health.LastError, errors.ErrInternal))
}

func TestScheduler_UsageReportPrunesIdleSessions(t *testing.T) {
	clock := testsupport.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := guardrails.NewMemoryLimiter(guardrails.DefaultLimits, clock.Now)
	ctx := context.Background()

	require.NoError(t, limiter.Record(ctx, "idle"))
	clock.Advance(2 * time.Hour)

	reporter := NewUsageReporter(limiter, agentUsageStub{{Agent: agents.AgentMarketAnalyst, Calls: 3}}, time.Hour, true)
	scheduler := NewScheduler()
	scheduler.RegisterWorker(reporter)

	require.NoError(t, scheduler.Start(ctx))
	require.Eventually(t, func() bool { return reporter.Health().RunCount == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Zero(t, reporter.Health().ErrorCount)
	totals, err := limiter.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, guardrails.Totals{}, totals)
}
