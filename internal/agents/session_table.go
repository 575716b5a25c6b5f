package agents

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	sessionTableSize = 10_000
	sessionIdleTTL   = time.Hour
)

// sessionState serializes the turns of one session and remembers whether its
// ADK session exists.
type sessionState struct {
	sync.Mutex
	known bool // guarded by the embedded mutex
}

// sessionTable holds per-session state for recently active sessions. Entries
// idle longer than the TTL, or pushed out by newer sessions, are dropped.
type sessionTable struct {
	mu     sync.Mutex
	states *expirable.LRU[string, *sessionState]
}

func newSessionTable(size int, ttl time.Duration) *sessionTable {
	return &sessionTable{states: expirable.NewLRU[string, *sessionState](size, nil, ttl)}
}

// get returns the state for sessionID and restarts its idle timer.
func (t *sessionTable) get(sessionID string) *sessionState {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states.Get(sessionID)
	if !ok {
		st = &sessionState{}
	}
	// Add resets the expiry, Get alone does not.
	t.states.Add(sessionID, st)
	return st
}

func (t *sessionTable) len() int {
	return t.states.Len()
}
