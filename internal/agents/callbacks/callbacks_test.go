package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/tool"
)

// fakeToolContext implements only what the budget reads.
type fakeToolContext struct {
	tool.Context
	invocation string
}

func (c fakeToolContext) InvocationID() string { return c.invocation }
func (c fakeToolContext) AgentName() string    { return "market_analyst" }

type fakeTool struct{}

func (fakeTool) Name() string        { return "get_stock_quote" }
func (fakeTool) Description() string { return "quote" }
func (fakeTool) IsLongRunning() bool { return false }

func TestToolBudget(t *testing.T) {
	b := NewToolBudget(2)
	before := b.BeforeTool()
	ctx := fakeToolContext{invocation: "inv-1"}

	for i := 0; i < 2; i++ {
		res, err := before(ctx, fakeTool{}, nil)
		require.NoError(t, err)
		assert.Nil(t, res)
	}

	res, err := before(ctx, fakeTool{}, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res["error"], "tool call limit of 2 reached")
	assert.Equal(t, 3, b.Used("inv-1"))

	// other invocations have their own counter
	res, err = before(fakeToolContext{invocation: "inv-2"}, fakeTool{}, nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestToolBudget_Disabled(t *testing.T) {
	b := NewToolBudget(0)
	before := b.BeforeTool()

	for i := 0; i < 10; i++ {
		res, err := before(fakeToolContext{invocation: "inv-1"}, fakeTool{}, nil)
		require.NoError(t, err)
		assert.Nil(t, res)
	}
	assert.Equal(t, 0, b.Used("inv-1"))
}
