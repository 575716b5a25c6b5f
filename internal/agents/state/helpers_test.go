package state

import (
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/session"
)

func TestStateHelpers_Counters(t *testing.T) {
	state := newTestState()

	assert.Equal(t, 0, GetTurnCount(state))
	assert.Equal(t, 1, IncrementTurnCount(state))
	assert.Equal(t, 2, IncrementTurnCount(state))
	assert.Equal(t, 2, GetTurnCount(state))

	assert.Equal(t, 1, IncrementToolCallCount(state))
	assert.Equal(t, 1, GetToolCallCount(state))

	// numbers restored from a JSON store
	require.NoError(t, state.Set(keyToolCallCount, float64(7)))
	assert.Equal(t, 8, IncrementToolCallCount(state))
}

func TestStateHelpers_LastTurn(t *testing.T) {
	state := newTestState()
	assert.True(t, GetLastTurnAt(state).IsZero())

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, SetLastTurnAt(state, now))
	assert.Equal(t, now, GetLastTurnAt(state))
}

func TestStateHelpers_ToolDuration(t *testing.T) {
	state := newTestState()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, ok := ToolDuration(state, "call-1", start)
	assert.False(t, ok)

	require.NoError(t, SetToolStartTime(state, "call-1", start))
	d, ok := ToolDuration(state, "call-1", start.Add(1500*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)
}

func newTestState() session.State {
	return &testState{data: make(map[string]any)}
}

type testState struct {
	data map[string]any
}

func (s *testState) Get(key string) (any, error) {
	if val, ok := s.data[key]; ok {
		return val, nil
	}
	return nil, session.ErrStateKeyNotExist
}

func (s *testState) Set(key string, val any) error {
	s.data[key] = val
	return nil
}

func (s *testState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range s.data {
			if !yield(k, v) {
				return
			}
		}
	}
}
