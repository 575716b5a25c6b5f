package shared

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoResult struct {
	Text string `json:"text"`
}

func TestToolBuilder(t *testing.T) {
	calls := 0
	deps := Deps{Log: logger.Nop(), ToolTimeout: time.Second}
	b := NewToolBuilder("echo", "Echo the input", func(_ context.Context, a echoArgs) (echoResult, error) {
		calls++
		if calls == 1 {
			return echoResult{}, errors.ErrProviderUnavailable
		}
		return echoResult{Text: a.Text}, nil
	}, deps).WithRetry(2, time.Millisecond).WithStats()

	got, err := b.Handler()(context.Background(), echoArgs{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, 2, calls)

	built := b.Build()
	assert.Equal(t, "echo", built.Name())
	assert.Equal(t, "Echo the input", built.Description())
	assert.False(t, built.IsLongRunning())
}

func TestToolBuilder_DefaultTimeout(t *testing.T) {
	b := NewToolBuilder("slow", "", func(ctx context.Context, _ NoArgs) (echoResult, error) {
		<-ctx.Done()
		return echoResult{}, ctx.Err()
	}, Deps{ToolTimeout: 10 * time.Millisecond})

	_, err := b.Handler()(context.Background(), NoArgs{})
	assert.True(t, errors.Is(err, errors.ErrTimeout))
}

func TestInvocationMetadata(t *testing.T) {
	ctx := WithInvocationMetadata(context.Background(), InvocationMetadata{Agent: "market_analyst", SessionID: "s1"})
	meta, ok := MetadataFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "market_analyst", meta.Agent)
	assert.Contains(t, logFields(ctx), "s1")

	_, ok = MetadataFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, logFields(context.Background()))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$1,234.50", Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "-$5.25", Money(decimal.RequireFromString("-5.249")))
	assert.Equal(t, "5,123.46", Number(decimal.RequireFromString("5123.456")))
	assert.Equal(t, 2.97, Float(decimal.RequireFromString("2.9730")))
	assert.Equal(t, []string{"AAPL", "MSFT", "JPM"}, Symbols(" aapl, msft,,AAPL ,jpm"))
	assert.Empty(t, Symbols(" , "))
}
