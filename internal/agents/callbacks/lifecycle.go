package callbacks

import (
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"

	"finassist/internal/agents/state"
	"finassist/pkg/logger"
)

// TurnStartBeforeAgentCallback counts the session's turns and logs the start
// of an agent run.
func TurnStartBeforeAgentCallback() agent.BeforeAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		st := ctx.State()
		previous := state.GetLastTurnAt(st)
		turn := state.IncrementTurnCount(st)
		_ = state.SetLastTurnAt(st, time.Now())

		fields := []interface{}{
			"session", ctx.SessionID(),
			"invocation", ctx.InvocationID(),
			"turn", turn,
		}
		if !previous.IsZero() {
			fields = append(fields, "since_last_turn", time.Since(previous).Round(time.Second).String())
		}
		logger.Get().With("component", "agent_lifecycle", "agent", ctx.AgentName()).
			Debugw("Agent turn started", fields...)
		return nil, nil
	}
}

// TurnEndAfterAgentCallback logs the end of an agent run.
func TurnEndAfterAgentCallback() agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		logger.Get().With("component", "agent_lifecycle", "agent", ctx.AgentName()).
			Debugw("Agent turn finished",
				"session", ctx.SessionID(),
				"invocation", ctx.InvocationID(),
				"session_tool_calls", state.GetToolCallCount(ctx.ReadonlyState()),
			)
		return nil, nil
	}
}
