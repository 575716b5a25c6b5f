// Package state holds typed accessors for the ADK session state the agent
// callbacks share.
package state

import (
	"time"

	"google.golang.org/adk/session"
)

const (
	keyTurnCount     = "turn_count"
	keyToolCallCount = "tool_call_count"
	keyLastTurnAt    = "last_turn_at"

	// Temporary keys are never persisted with the session.
	keyToolStartTimes = session.KeyPrefixTemp + "tool_start_"
)

// IncrementTurnCount bumps the number of questions answered in the session.
func IncrementTurnCount(state session.State) int {
	n := GetTurnCount(state) + 1
	_ = state.Set(keyTurnCount, n)
	return n
}

// GetTurnCount returns the number of questions answered in the session.
func GetTurnCount(state session.ReadonlyState) int {
	return getInt(state, keyTurnCount)
}

// SetLastTurnAt records when the session last started a turn.
func SetLastTurnAt(state session.State, t time.Time) error {
	return state.Set(keyLastTurnAt, t)
}

// GetLastTurnAt returns the start of the previous turn, zero if none.
func GetLastTurnAt(state session.ReadonlyState) time.Time {
	val, err := state.Get(keyLastTurnAt)
	if err != nil {
		return time.Time{}
	}
	t, _ := val.(time.Time)
	return t
}

// IncrementToolCallCount bumps the session's tool call counter.
func IncrementToolCallCount(state session.State) int {
	n := GetToolCallCount(state) + 1
	_ = state.Set(keyToolCallCount, n)
	return n
}

// GetToolCallCount returns the number of tool calls made in the session.
func GetToolCallCount(state session.ReadonlyState) int {
	return getInt(state, keyToolCallCount)
}

// SetToolStartTime remembers when a function call started.
func SetToolStartTime(state session.State, callID string, t time.Time) error {
	return state.Set(keyToolStartTimes+callID, t)
}

// ToolDuration returns the time elapsed since SetToolStartTime for callID.
func ToolDuration(state session.ReadonlyState, callID string, now time.Time) (time.Duration, bool) {
	val, err := state.Get(keyToolStartTimes + callID)
	if err != nil {
		return 0, false
	}
	start, ok := val.(time.Time)
	if !ok || start.IsZero() {
		return 0, false
	}
	return now.Sub(start), true
}

func getInt(state session.ReadonlyState, key string) int {
	val, err := state.Get(key)
	if err != nil {
		return 0
	}
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		// JSON-backed session stores decode numbers as float64
		return int(n)
	}
	return 0
}
