// Package assistant is the request pipeline shared by every channel: input
// guardrails, routing, agent orchestration and output guardrails.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finassist/internal/agents"
	"finassist/internal/guardrails"
	"finassist/internal/metrics"
	"finassist/internal/router"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// DefaultSessionID is used when a channel does not provide a session.
const DefaultSessionID = "default"

// Channels, used as metric labels.
const (
	ChannelCLI       = "cli"
	ChannelWeb       = "web"
	ChannelWebSocket = "websocket"
	ChannelTelegram  = "telegram"
)

// Query outcomes, used as metric labels.
const (
	outcomeAnswered = "answered"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

const (
	errorRoutingInfo = "Error occurred"
	errorMessageFmt  = "I apologize, but I encountered an error processing your question: %s\n\nPlease try rephrasing your question or contact support if the issue persists."
)

// Query is one user question.
type Query struct {
	Text      string
	SessionID string
	Channel   string
}

// Response is what every channel renders for a query.
type Response struct {
	Text        string
	RoutingInfo string
	Agents      []agents.AgentType
	Results     []agents.AgentResult
	Rejected    bool
	Reason      string
	Duration    time.Duration
}

// Display renders the response the way the chat UIs show it: the routing
// line in italics above the answer.
func (r *Response) Display() string {
	if r.RoutingInfo == "" {
		return r.Text
	}
	return "*" + r.RoutingInfo + "*\n\n" + r.Text
}

// Guard is the guardrail surface the pipeline needs.
type Guard interface {
	ValidateInput(ctx context.Context, text, sessionID string) guardrails.InputResult
	ValidateOutput(response, query string) guardrails.OutputResult
	Stats(ctx context.Context, sessionID string) (guardrails.SessionUsage, error)
	Totals(ctx context.Context) (guardrails.Totals, error)
}

// Router picks agents for a question.
type Router interface {
	Route(ctx context.Context, text string) router.RoutingDecision
}

// Orchestrator runs the routed agents.
type Orchestrator interface {
	Execute(ctx context.Context, names []agents.AgentType, query, sessionID string) (*agents.Merged, error)
	AgentInfo() []agents.AgentInfo
	Usage() []agents.AgentUsage
}

var (
	_ Guard        = (*guardrails.Filter)(nil)
	_ Router       = (*router.Router)(nil)
	_ Orchestrator = (*agents.Orchestrator)(nil)
)

// Config bounds the pipeline.
type Config struct {
	// RequestTimeout bounds a whole query; zero disables it.
	RequestTimeout time.Duration
}

// Assistant answers finance questions.
type Assistant struct {
	guard        Guard
	router       Router
	orchestrator Orchestrator
	tracker      errors.Tracker
	cfg          Config
	log          *logger.Logger
}

// New creates the pipeline. tracker may be nil.
func New(guard Guard, rt Router, orch Orchestrator, tracker errors.Tracker, cfg Config) *Assistant {
	return &Assistant{
		guard:        guard,
		router:       rt,
		orchestrator: orch,
		tracker:      tracker,
		cfg:          cfg,
		log:          logger.Get().With("component", "assistant"),
	}
}

// ProcessQuery runs one question through the pipeline. It always returns a
// displayable response; internal failures become an apology text.
func (a *Assistant) ProcessQuery(ctx context.Context, q Query) *Response {
	start := time.Now()
	if q.SessionID == "" {
		q.SessionID = DefaultSessionID
	}
	if q.Channel == "" {
		q.Channel = ChannelCLI
	}

	ctx = errors.WithSessionID(ctx, q.SessionID)
	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}

	log := a.log.With("session_id", q.SessionID, "channel", q.Channel)

	in := a.guard.ValidateInput(ctx, q.Text, q.SessionID)
	if !in.OK {
		a.breadcrumb(ctx, "input rejected", "guardrails", map[string]interface{}{"reason": in.Reason})
		resp := &Response{Text: in.Message, Rejected: true, Reason: in.Reason, Duration: time.Since(start)}
		metrics.RecordQuery(q.Channel, outcomeRejected, resp.Duration)
		return resp
	}

	decision := a.router.Route(ctx, in.Sanitized)
	routing := router.Explain(decision)
	a.breadcrumb(ctx, routing, "router", map[string]interface{}{"fallback": decision.Fallback})
	log.Infow("Query routed", "agents", decision.Agents, "fallback", decision.Fallback)

	merged, err := a.orchestrator.Execute(ctx, decision.Agents, in.Sanitized, q.SessionID)
	if err != nil {
		return a.fail(ctx, q, err, start)
	}

	resp := &Response{
		RoutingInfo: routing,
		Agents:      decision.Agents,
		Results:     merged.Results,
	}

	out := a.guard.ValidateOutput(merged.Text, in.Sanitized)
	if out.OK {
		resp.Text = out.Text
	} else {
		resp.Text = out.Message
	}

	resp.Duration = time.Since(start)
	metrics.RecordQuery(q.Channel, outcomeAnswered, resp.Duration)
	log.Infow("Query answered",
		"agents", len(decision.Agents),
		"synthesized", merged.Synthesized,
		"duration", resp.Duration,
	)
	return resp
}

func (a *Assistant) fail(ctx context.Context, q Query, err error, start time.Time) *Response {
	a.log.Errorw("Query failed", "session_id", q.SessionID, "error", err)
	if a.tracker != nil {
		_ = a.tracker.CaptureError(ctx, err, map[string]string{"channel": q.Channel})
	}

	resp := &Response{
		Text:        fmt.Sprintf(errorMessageFmt, err),
		RoutingInfo: errorRoutingInfo,
		Duration:    time.Since(start),
	}
	metrics.RecordQuery(q.Channel, outcomeError, resp.Duration)
	return resp
}

func (a *Assistant) breadcrumb(ctx context.Context, msg, category string, data map[string]interface{}) {
	if a.tracker != nil {
		a.tracker.AddBreadcrumb(ctx, msg, category, errors.LevelInfo, data)
	}
}

// Agents lists the available agents and their tools.
func (a *Assistant) Agents() []agents.AgentInfo {
	return a.orchestrator.AgentInfo()
}

// UsageReport is the usage picture returned by /api/usage and the CLI.
type UsageReport struct {
	Session *guardrails.SessionUsage `json:"session,omitempty"`
	Totals  guardrails.Totals        `json:"totals"`
	Agents  []agents.AgentUsage      `json:"agents"`
}

// Usage reports request counts for sessionID (skipped when empty), totals
// across sessions and per-agent call statistics.
func (a *Assistant) Usage(ctx context.Context, sessionID string) (*UsageReport, error) {
	report := &UsageReport{Agents: a.orchestrator.Usage()}

	totals, err := a.guard.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "usage totals")
	}
	report.Totals = totals

	if sessionID != "" {
		stats, err := a.guard.Stats(ctx, sessionID)
		if err != nil {
			return nil, errors.Wrapf(err, "usage for session %s", sessionID)
		}
		report.Session = &stats
	}
	return report, nil
}

// SystemInfo renders the markdown overview of the agents.
func (a *Assistant) SystemInfo() string {
	var b strings.Builder
	b.WriteString("## 🤖 AI Finance Assistant - System Information\n\n")
	b.WriteString("### Available Agents:\n\n")
	for _, info := range a.orchestrator.AgentInfo() {
		fmt.Fprintf(&b, "**%s**\n", info.Name)
		fmt.Fprintf(&b, "- Tools: %d\n", info.ToolCount)
		fmt.Fprintf(&b, "- Capabilities: %s\n\n", strings.Join(info.Tools, ", "))
	}
	return b.String()
}

// Example is a canned question shown by the UIs.
type Example struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Query string `json:"query"`
}

// Examples are the quick-start questions, one per agent.
var Examples = []Example{
	{Key: "stock_price", Label: "📈 Check Stock Price", Query: "What's the current price of Apple stock?"},
	{Key: "portfolio", Label: "📊 Analyze Portfolio", Query: "Analyze this portfolio: AAPL (10 shares), MSFT (15 shares), GOOGL (5 shares)"},
	{Key: "retirement", Label: "🎯 Plan Retirement", Query: "I'm 30 years old and want to retire at 65. If I save $500/month with 7% returns, how much will I have?"},
	{Key: "tax", Label: "💰 IRA vs Roth IRA", Query: "What's the difference between a Traditional IRA and Roth IRA?"},
	{Key: "education", Label: "💬 Learn About Diversification", Query: "What is diversification and why is it important?"},
}
