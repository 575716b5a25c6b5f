package guardrails

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finassist/pkg/errors"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
	activeWindow = 5 * time.Minute
)

// Limits are the two sliding windows enforced per session.
type Limits struct {
	PerMinute int
	PerHour   int
}

// DefaultLimits match the configuration defaults.
var DefaultLimits = Limits{PerMinute: 10, PerHour: 100}

// Window names which limit was hit.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
)

// LimitError is returned by Check when a session is over a window limit.
type LimitError struct {
	SessionID string
	Window    Window
	Limit     int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("session %s exceeded %d requests per %s", e.SessionID, e.Limit, e.Window)
}

func (e *LimitError) Unwrap() error {
	return errors.ErrRateLimitExceeded
}

// SessionUsage is the request count of one session.
type SessionUsage struct {
	SessionID  string `json:"session_id"`
	Total      int    `json:"total_queries"`
	LastHour   int    `json:"queries_last_hour"`
	LastMinute int    `json:"queries_last_minute"`
}

// Totals summarizes usage across sessions.
type Totals struct {
	Sessions       int `json:"total_sessions"`
	Requests       int `json:"total_queries"`
	ActiveSessions int `json:"active_sessions"`
}

// ReleaseFunc returns a reserved request slot. It is safe to call more than once.
type ReleaseFunc func(ctx context.Context) error

// SessionLimiter bounds the request rate of each session.
type SessionLimiter interface {
	// Reserve checks both windows and counts the request in one atomic step.
	// It returns a *LimitError when the session is over a limit. Calling the
	// returned release uncounts the request.
	Reserve(ctx context.Context, sessionID string) (ReleaseFunc, error)
	// Check returns a *LimitError when the session may not make another request.
	Check(ctx context.Context, sessionID string) error
	// Record counts an accepted request.
	Record(ctx context.Context, sessionID string) error
	Usage(ctx context.Context, sessionID string) (SessionUsage, error)
	Totals(ctx context.Context) (Totals, error)
	Reset(ctx context.Context, sessionID string) error
}

// MemoryLimiter keeps request timestamps per session in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	limits  Limits
	history map[string][]time.Time
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process session limiter. A nil clock uses time.Now.
func NewMemoryLimiter(limits Limits, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		limits:  limits,
		history: make(map[string][]time.Time),
		now:     now,
	}
}

var _ SessionLimiter = (*MemoryLimiter)(nil)

// prune drops timestamps older than the hour window. Caller holds mu.
func (m *MemoryLimiter) prune(sessionID string, now time.Time) []time.Time {
	stamps := m.history[sessionID]
	cutoff := now.Add(-hourWindow)

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		stamps = append(stamps[:0:0], stamps[i:]...)
		if len(stamps) == 0 {
			delete(m.history, sessionID)
		} else {
			m.history[sessionID] = stamps
		}
	}
	return stamps
}

func countSince(stamps []time.Time, since time.Time) int {
	n := 0
	for i := len(stamps) - 1; i >= 0 && stamps[i].After(since); i-- {
		n++
	}
	return n
}

func (m *MemoryLimiter) Check(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.check(sessionID, m.now())
}

// check tests both windows. Caller holds mu.
func (m *MemoryLimiter) check(sessionID string, now time.Time) error {
	stamps := m.prune(sessionID, now)

	if countSince(stamps, now.Add(-minuteWindow)) >= m.limits.PerMinute {
		return &LimitError{SessionID: sessionID, Window: WindowMinute, Limit: m.limits.PerMinute}
	}
	if len(stamps) >= m.limits.PerHour {
		return &LimitError{SessionID: sessionID, Window: WindowHour, Limit: m.limits.PerHour}
	}
	return nil
}

func (m *MemoryLimiter) Reserve(_ context.Context, sessionID string) (ReleaseFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if err := m.check(sessionID, now); err != nil {
		return nil, err
	}
	m.history[sessionID] = append(m.history[sessionID], now)

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { m.release(sessionID, now) })
		return nil
	}, nil
}

// release drops one timestamp equal to stamp.
func (m *MemoryLimiter) release(sessionID string, stamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stamps := m.history[sessionID]
	for i := len(stamps) - 1; i >= 0; i-- {
		if stamps[i].Equal(stamp) {
			stamps = append(stamps[:i], stamps[i+1:]...)
			break
		}
	}
	if len(stamps) == 0 {
		delete(m.history, sessionID)
	} else {
		m.history[sessionID] = stamps
	}
}

func (m *MemoryLimiter) Record(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[sessionID] = append(m.history[sessionID], m.now())
	return nil
}

func (m *MemoryLimiter) Usage(_ context.Context, sessionID string) (SessionUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stamps := m.prune(sessionID, now)
	return SessionUsage{
		SessionID:  sessionID,
		Total:      len(stamps),
		LastHour:   len(stamps),
		LastMinute: countSince(stamps, now.Add(-minuteWindow)),
	}, nil
}

func (m *MemoryLimiter) Totals(_ context.Context) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var t Totals
	for id := range m.history {
		stamps := m.prune(id, now)
		if len(stamps) == 0 {
			continue
		}
		t.Sessions++
		t.Requests += len(stamps)
		if stamps[len(stamps)-1].After(now.Add(-activeWindow)) {
			t.ActiveSessions++
		}
	}
	return t, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.history, sessionID)
	return nil
}
