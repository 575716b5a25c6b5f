package agents

import (
	"sort"
	"sync"
	"time"
)

// AgentUsage is the running total of one agent's invocations.
type AgentUsage struct {
	Agent        AgentType `json:"agent"`
	Calls        int64     `json:"calls"`
	Failures     int64     `json:"failures"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	AvgLatencyMs int64     `json:"avg_latency_ms"`

	totalLatency time.Duration
}

// UsageTracker accumulates per-agent call and token counts for the usage
// report. It is safe for concurrent use.
type UsageTracker struct {
	mu     sync.RWMutex
	agents map[AgentType]*AgentUsage
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{agents: make(map[AgentType]*AgentUsage)}
}

func (u *UsageTracker) entry(t AgentType) *AgentUsage {
	e, ok := u.agents[t]
	if !ok {
		e = &AgentUsage{Agent: t}
		u.agents[t] = e
	}
	return e
}

// RecordCall counts one invocation.
func (u *UsageTracker) RecordCall(t AgentType, latency time.Duration, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e := u.entry(t)
	e.Calls++
	if err != nil {
		e.Failures++
	}
	e.totalLatency += latency
}

// RecordTokens adds model token usage.
func (u *UsageTracker) RecordTokens(t AgentType, input, output int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	e := u.entry(t)
	e.InputTokens += int64(input)
	e.OutputTokens += int64(output)
}

// Snapshot returns a copy of every agent's usage, sorted by agent name.
func (u *UsageTracker) Snapshot() []AgentUsage {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]AgentUsage, 0, len(u.agents))
	for _, e := range u.agents {
		c := *e
		if c.Calls > 0 {
			c.AvgLatencyMs = (c.totalLatency / time.Duration(c.Calls)).Milliseconds()
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// Reset clears all counters.
func (u *UsageTracker) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.agents = make(map[AgentType]*AgentUsage)
}
