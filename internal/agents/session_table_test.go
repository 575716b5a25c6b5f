package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTable_ReusesState(t *testing.T) {
	table := newSessionTable(4, time.Hour)

	a := table.get("a")
	a.known = true
	assert.Same(t, a, table.get("a"))
	assert.True(t, table.get("a").known)
	assert.NotSame(t, a, table.get("b"))
}

func TestSessionTable_BoundedBySize(t *testing.T) {
	table := newSessionTable(2, time.Hour)

	first := table.get("s1")
	table.get("s2")
	table.get("s3")

	assert.Equal(t, 2, table.len())
	assert.NotSame(t, first, table.get("s1"), "oldest session evicted")
}

func TestSessionTable_IdleSessionsExpire(t *testing.T) {
	table := newSessionTable(100, 50*time.Millisecond)

	for _, id := range []string{"a", "b", "c"} {
		table.get(id)
	}
	require.Equal(t, 3, table.len())

	require.Eventually(t, func() bool { return table.len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionTable_AccessKeepsSessionAlive(t *testing.T) {
	table := newSessionTable(100, 150*time.Millisecond)

	st := table.get("active")
	for range 4 {
		time.Sleep(50 * time.Millisecond)
		assert.Same(t, st, table.get("active"))
	}
}
