package callbacks

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"finassist/internal/agents/state"
	"finassist/pkg/logger"
)

// RecordToolStartTimeBeforeToolCallback records when each function call starts
// so the audit callback can report its duration.
func RecordToolStartTimeBeforeToolCallback() llmagent.BeforeToolCallback {
	return func(ctx tool.Context, t tool.Tool, args map[string]any) (map[string]any, error) {
		_ = state.SetToolStartTime(ctx.State(), ctx.FunctionCallID(), time.Now())
		return nil, nil
	}
}

// AuditLogAfterToolCallback logs successful tool executions and counts them
// per session. ADK skips after-tool callbacks for failed calls; failures are
// logged by the tool stats middleware.
func AuditLogAfterToolCallback() llmagent.AfterToolCallback {
	return func(ctx tool.Context, t tool.Tool, args, result map[string]any, err error) (map[string]any, error) {
		count := state.IncrementToolCallCount(ctx.State())

		fields := []interface{}{
			"agent", ctx.AgentName(),
			"session", ctx.SessionID(),
			"call_id", ctx.FunctionCallID(),
			"session_tool_calls", count,
		}
		if d, ok := state.ToolDuration(ctx.ReadonlyState(), ctx.FunctionCallID(), time.Now()); ok {
			fields = append(fields, "duration_ms", d.Milliseconds())
		}

		log := logger.Get().With("component", "tool_audit", "tool", t.Name())
		if err != nil {
			log.Warnw("Tool call failed", append(fields, "error", err)...)
		} else {
			log.Infow("Tool call completed", fields...)
		}

		// nil keeps the tool's own result
		return nil, nil
	}
}

// ToolBudget caps the number of tool calls one agent invocation can make.
// Calls over the budget are answered with an error payload telling the model
// to answer with what it has.
type ToolBudget struct {
	max int

	mu    sync.Mutex
	calls map[string]int
}

// NewToolBudget creates a budget of max calls per invocation. max <= 0
// disables the cap.
func NewToolBudget(max int) *ToolBudget {
	return &ToolBudget{max: max, calls: make(map[string]int)}
}

// BeforeTool enforces the budget.
func (b *ToolBudget) BeforeTool() llmagent.BeforeToolCallback {
	return func(ctx tool.Context, t tool.Tool, args map[string]any) (map[string]any, error) {
		if b.max <= 0 {
			return nil, nil
		}

		b.mu.Lock()
		b.calls[ctx.InvocationID()]++
		n := b.calls[ctx.InvocationID()]
		b.mu.Unlock()

		if n <= b.max {
			return nil, nil
		}

		logger.Get().With("component", "tool_budget", "agent", ctx.AgentName()).
			Warnw("Tool call budget exhausted", "tool", t.Name(), "max", b.max)
		return map[string]any{
			"error": fmt.Sprintf("tool call limit of %d reached; answer with the information gathered so far", b.max),
		}, nil
	}
}

// Release forgets the counter of a finished invocation.
func (b *ToolBudget) Release() agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		b.mu.Lock()
		delete(b.calls, ctx.InvocationID())
		b.mu.Unlock()
		return nil, nil
	}
}

// Used reports the calls counted for an invocation.
func (b *ToolBudget) Used(invocationID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[invocationID]
}
