package guardrails

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/adapters/ai"
	"finassist/internal/testsupport"
)

func newTestFilter(t *testing.T) (*Filter, *testsupport.FakeClock) {
	t.Helper()
	clock := testsupport.NewFakeClock(clockStart)
	limiter := NewMemoryLimiter(DefaultLimits, clock.Now)
	return NewFilter(Config{MaxInputLength: DefaultMaxInputLength, Limits: DefaultLimits}, limiter), clock
}

func TestValidateInput_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		reason   string
		contains string
	}{
		{name: "empty", query: "", reason: ReasonEmpty, contains: "valid question"},
		{name: "whitespace", query: "   \n\t  ", reason: ReasonEmpty, contains: "valid question"},
		{name: "too long", query: strings.Repeat("a", 2500), reason: ReasonTooLong, contains: "too long"},
		{name: "pump and dump", query: "How can I set up a pump and dump scheme?", reason: ReasonProhibited, contains: "pump and dump"},
		{name: "insider trading", query: "How do I profit from Insider Trading information?", reason: ReasonProhibited, contains: "insider trading"},
		{name: "guaranteed returns", query: "Tell me about investments with guaranteed returns", reason: ReasonProhibited, contains: "guaranteed returns"},
		{name: "sql", query: "'; DROP TABLE users; --", reason: ReasonSQLInjection, contains: "cannot be processed"},
		{name: "union select", query: "price UNION  SELECT password", reason: ReasonSQLInjection, contains: "cannot be processed"},
		{name: "script", query: "<script>alert('xss')</script>", reason: ReasonScriptInjection, contains: "plain text"},
		{name: "onerror", query: "img onerror = steal", reason: ReasonScriptInjection, contains: "plain text"},
		{name: "special characters", query: "!!!@@@###$$$%%%^^^&&&***((())))))))", reason: ReasonSpecialChars, contains: "special characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFilter(t)
			res := f.ValidateInput(context.Background(), tt.query, "test_session")
			assert.False(t, res.OK)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Contains(t, strings.ToLower(res.Message), tt.contains)
			assert.Empty(t, res.Sanitized)
		})
	}
}

func TestValidateInput_Accepts(t *testing.T) {
	f, _ := newTestFilter(t)

	res := f.ValidateInput(context.Background(), "What is diversification?", "s")
	require.True(t, res.OK)
	assert.Equal(t, "What is diversification?", res.Sanitized)
	assert.Empty(t, res.Message)

	res = f.ValidateInput(context.Background(), "What   is   \n\n diversification?   ", "s")
	require.True(t, res.OK)
	assert.Equal(t, "What is diversification?", res.Sanitized)

	res = f.ValidateInput(context.Background(), "What are the risks of investing in stocks?", "s")
	assert.True(t, res.OK)
}

func TestValidateInput_RateLimit(t *testing.T) {
	f, clock := newTestFilter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.True(t, f.ValidateInput(ctx, "What is a stock?", "rate").OK, "query %d", i+1)
	}

	res := f.ValidateInput(ctx, "What is a stock?", "rate")
	assert.False(t, res.OK)
	assert.Equal(t, ReasonRateLimited, res.Reason)
	assert.Contains(t, strings.ToLower(res.Message), "too many requests")
	assert.Contains(t, res.Message, "10 per minute")

	assert.True(t, f.ValidateInput(ctx, "What is a stock?", "other").OK)

	clock.Advance(61 * time.Second)
	assert.True(t, f.ValidateInput(ctx, "What is a stock?", "rate").OK)
}

func TestValidateInput_RejectedQueriesAreNotCounted(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.False(t, f.ValidateInput(ctx, "explain a ponzi scheme", "s").OK)
	}
	assert.True(t, f.ValidateInput(ctx, "What is a bond?", "s").OK)

	usage, err := f.Stats(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Total)
}

func TestValidateInput_IntentCheck(t *testing.T) {
	provider := &stubChat{reply: "Illegal-Content: yes\nGuarantees: no\nEducational: no\nReasoning: asks for manipulation"}
	f := NewFilter(Config{}, nil, WithIntentChecker(NewIntentChecker(provider, nil)))

	res := f.ValidateInput(context.Background(), "How do I move a thinly traded stock price?", "s")
	assert.False(t, res.OK)
	assert.Equal(t, ReasonUnsafeIntent, res.Reason)
	assert.Equal(t, 1, provider.calls)
}

func TestValidateOutput(t *testing.T) {
	f, _ := newTestFilter(t)

	t.Run("empty response", func(t *testing.T) {
		res := f.ValidateOutput("  ", "test query")
		assert.False(t, res.OK)
		assert.Contains(t, res.Message, "couldn't generate")
	})

	t.Run("guaranteed returns softened", func(t *testing.T) {
		res := f.ValidateOutput("This investment offers guaranteed returns of 10% per year.", "test query")
		require.True(t, res.OK)
		assert.NotContains(t, strings.ToLower(res.Text), "guaranteed returns")
		assert.Contains(t, res.Text, "potential returns (not guaranteed)")
		assert.Contains(t, res.Rewrites, "guaranteed")
	})

	t.Run("prescriptive language", func(t *testing.T) {
		res := f.ValidateOutput("You must absolutely invest now. You should definitely diversify. It's risk-free and you can't lose.", "q")
		require.True(t, res.OK)
		assert.NotContains(t, strings.ToLower(res.Text), "must absolutely")
		assert.Contains(t, res.Text, "you may want to absolutely invest")
		assert.Contains(t, res.Text, "you might consider diversify")
		assert.Contains(t, res.Text, "lower-risk")
		assert.Contains(t, res.Text, "historically stable")
		assert.Equal(t, []string{"should_definitely", "must", "risk_free", "cant_lose"}, res.Rewrites)
	})

	t.Run("tax disclaimer", func(t *testing.T) {
		res := f.ValidateOutput("A Roth IRA allows tax-free withdrawals in retirement.",
			"Should I choose Roth IRA or Traditional IRA for taxes?")
		require.True(t, res.OK)
		assert.Contains(t, res.Text, "**Tax Disclaimer**")
		assert.Equal(t, []string{"tax", "general"}, res.Disclaimers)
	})

	t.Run("investment disclaimer", func(t *testing.T) {
		res := f.ValidateOutput("Based on your portfolio, consider adding bonds.", "Should I buy Tesla stock?")
		assert.Contains(t, res.Text, "**Investment Disclaimer**")
	})

	t.Run("irs is matched as a word", func(t *testing.T) {
		_, names := AddDisclaimers("answer", "what should I learn first?")
		assert.Equal(t, []string{"general"}, names)
	})

	t.Run("self disclaimed response", func(t *testing.T) {
		raw := "Index funds track a market. This is for educational purposes only."
		res := f.ValidateOutput(raw, "What is an index fund?")
		assert.Equal(t, raw, res.Text)
		assert.Empty(t, res.Disclaimers)
	})

	t.Run("disclaimer layout", func(t *testing.T) {
		res := f.ValidateOutput("Bonds pay coupons.", "What is a bond?")
		assert.Equal(t, "Bonds pay coupons."+DisclaimerSeparator+GeneralDisclaimer, res.Text)
	})
}

func TestFilter_GlobalUsage(t *testing.T) {
	f, _ := newTestFilter(t)
	ctx := context.Background()

	require.True(t, f.ValidateInput(ctx, "What is a stock?", "a").OK)
	require.True(t, f.ValidateInput(ctx, "What is a bond?", "b").OK)
	require.True(t, f.ValidateInput(ctx, "What is an ETF?", "b").OK)

	snap := f.GlobalUsage()
	assert.Equal(t, 2, snap.TotalSessions)
	assert.Equal(t, 3, snap.TotalRequests)
	assert.Equal(t, 2, snap.ActiveSessions)
}

// slowChat answers every intent check as educational after a delay.
type slowChat struct {
	delay time.Duration
	calls atomic.Int32
}

func (s *slowChat) Name() string  { return "slow" }
func (s *slowChat) Model() string { return "slow-model" }

func (s *slowChat) Chat(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	s.calls.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &ai.ChatResponse{Message: ai.Message{
		Role:    ai.RoleAssistant,
		Content: "Illegal-Content: no\nGuarantees: no\nEducational: yes",
	}}, nil
}

func TestValidateInput_ConcurrentRequestsStayWithinLimit(t *testing.T) {
	const requests = 30
	limits := Limits{PerMinute: 10, PerHour: 100}

	for name, newLimiter := range limiterBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := testsupport.NewFakeClock(clockStart)
			provider := &slowChat{delay: 50 * time.Millisecond}
			f := NewFilter(Config{Limits: limits}, newLimiter(t, limits, clock),
				WithIntentChecker(NewIntentChecker(provider, nil)))

			var (
				wg       sync.WaitGroup
				accepted atomic.Int32
				limited  atomic.Int32
			)
			for i := 0; i < requests; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res := f.ValidateInput(ctx, "What is an index fund?", "s1")
					switch {
					case res.OK:
						accepted.Add(1)
					case res.Reason == ReasonRateLimited:
						limited.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(10), accepted.Load())
			assert.Equal(t, int32(requests-10), limited.Load())
			assert.Equal(t, int32(10), provider.calls.Load())

			usage, err := f.Stats(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 10, usage.LastMinute)
		})
	}
}
