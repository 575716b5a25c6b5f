package workers

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"finassist/internal/agents"
	"finassist/internal/guardrails"
	"finassist/pkg/errors"
)

// UsageSource reports session totals.
type UsageSource interface {
	Totals(ctx context.Context) (guardrails.Totals, error)
}

// AgentUsageSource reports per-agent call statistics.
type AgentUsageSource interface {
	Usage() []agents.AgentUsage
}

// UsageReporter logs request totals and agent usage. Reading the totals also
// drops sessions that fell out of the rate-limit window from memory.
type UsageReporter struct {
	*BaseWorker
	sessions UsageSource
	agents   AgentUsageSource
}

// NewUsageReporter creates the "usage_report" worker.
func NewUsageReporter(sessions UsageSource, agentUsage AgentUsageSource, interval time.Duration, enabled bool) *UsageReporter {
	return &UsageReporter{
		BaseWorker: NewBaseWorker("usage_report", interval, enabled),
		sessions:   sessions,
		agents:     agentUsage,
	}
}

func (w *UsageReporter) Run(ctx context.Context) error {
	totals, err := w.sessions.Totals(ctx)
	if err != nil {
		return errors.Wrap(err, "session totals")
	}

	w.Log().Infow("Usage report",
		"sessions", totals.Sessions,
		"active_sessions", totals.ActiveSessions,
		"queries_last_hour", humanize.Comma(int64(totals.Requests)),
	)

	for _, u := range w.agents.Usage() {
		if u.Calls == 0 {
			continue
		}
		w.Log().Infow("Agent usage",
			"agent", u.Agent,
			"calls", humanize.Comma(u.Calls),
			"failures", u.Failures,
			"tokens", humanize.Comma(u.InputTokens+u.OutputTokens),
			"avg_latency_ms", u.AvgLatencyMs,
		)
	}
	return nil
}
