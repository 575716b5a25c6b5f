package assistant

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/agents"
	"finassist/internal/guardrails"
	"finassist/internal/router"
	"finassist/pkg/errors"
)

type fakeOrchestrator struct {
	mu        sync.Mutex
	text      string
	err       error
	sessions  []string
	queries   []string
	lastNames []agents.AgentType
}

func (f *fakeOrchestrator) Execute(_ context.Context, names []agents.AgentType, query, sessionID string) (*agents.Merged, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	f.queries = append(f.queries, query)
	f.lastNames = names
	if f.err != nil {
		return nil, f.err
	}
	results := make([]agents.AgentResult, len(names))
	for i, n := range names {
		results[i] = agents.AgentResult{Agent: n, Output: f.text}
	}
	return &agents.Merged{Text: f.text, Results: results}, nil
}

func (f *fakeOrchestrator) AgentInfo() []agents.AgentInfo {
	return []agents.AgentInfo{
		{Type: agents.AgentMarketAnalyst, Name: "Market Analyst", ToolCount: 2, Tools: []string{"get_stock_quote", "get_market_news"}},
		{Type: agents.AgentFinanceQA, Name: "Finance Q&A", ToolCount: 1, Tools: []string{"search_knowledge_base"}},
	}
}

func (f *fakeOrchestrator) Usage() []agents.AgentUsage {
	return []agents.AgentUsage{{Agent: agents.AgentFinanceQA, Calls: 3}}
}

type fakeTracker struct {
	captured []error
	crumbs   []string
}

func (t *fakeTracker) CaptureError(_ context.Context, err error, _ map[string]string) error {
	t.captured = append(t.captured, err)
	return nil
}

func (t *fakeTracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}

func (t *fakeTracker) SetSession(context.Context, string) {}

func (t *fakeTracker) AddBreadcrumb(_ context.Context, msg, _ string, _ errors.Level, _ map[string]interface{}) {
	t.crumbs = append(t.crumbs, msg)
}

func (t *fakeTracker) Flush(context.Context) error { return nil }

func newAssistant(orch *fakeOrchestrator, tracker errors.Tracker, limits guardrails.Limits, routed ...agents.AgentType) *Assistant {
	guard := guardrails.NewFilter(guardrails.Config{Limits: limits}, nil)
	rt := router.New(router.StaticClassifier{Decision: router.RoutingDecision{Agents: routed}})
	return New(guard, rt, orch, tracker, Config{RequestTimeout: time.Minute})
}

func TestProcessQuery_Answered(t *testing.T) {
	orch := &fakeOrchestrator{text: "Diversification spreads risk across assets."}
	tracker := &fakeTracker{}
	a := newAssistant(orch, tracker, guardrails.DefaultLimits, agents.AgentFinanceQA, agents.AgentPortfolioAnalyzer)

	resp := a.ProcessQuery(context.Background(), Query{Text: "What is   diversification?", SessionID: "s1", Channel: ChannelWeb})

	assert.False(t, resp.Rejected)
	assert.Equal(t, []agents.AgentType{agents.AgentFinanceQA, agents.AgentPortfolioAnalyzer}, resp.Agents)
	assert.Len(t, resp.Results, 2)
	assert.True(t, strings.HasPrefix(resp.RoutingInfo, "Routing to: **"))
	assert.True(t, strings.HasPrefix(resp.Text, "Diversification spreads risk across assets."))
	assert.Contains(t, resp.Text, guardrails.GeneralDisclaimer)
	assert.True(t, strings.HasPrefix(resp.Display(), "*Routing to: **"))

	require.Len(t, orch.queries, 1)
	assert.Equal(t, "What is diversification?", orch.queries[0], "agents receive the sanitized text")
	assert.Equal(t, []string{"s1"}, orch.sessions)
	assert.NotEmpty(t, tracker.crumbs)
	assert.Empty(t, tracker.captured)
}

func TestProcessQuery_DefaultSession(t *testing.T) {
	orch := &fakeOrchestrator{text: "answer"}
	a := newAssistant(orch, nil, guardrails.DefaultLimits, agents.AgentFinanceQA)

	a.ProcessQuery(context.Background(), Query{Text: "What is a bond?"})
	assert.Equal(t, []string{DefaultSessionID}, orch.sessions)
}

func TestProcessQuery_Rejected(t *testing.T) {
	orch := &fakeOrchestrator{text: "answer"}
	a := newAssistant(orch, nil, guardrails.DefaultLimits, agents.AgentFinanceQA)

	resp := a.ProcessQuery(context.Background(), Query{Text: "   ", SessionID: "s1"})

	assert.True(t, resp.Rejected)
	assert.Equal(t, guardrails.ReasonEmpty, resp.Reason)
	assert.NotEmpty(t, resp.Text)
	assert.Empty(t, resp.RoutingInfo)
	assert.Equal(t, resp.Text, resp.Display())
	assert.Empty(t, orch.queries, "rejected queries never reach the agents")
}

func TestProcessQuery_RateLimited(t *testing.T) {
	orch := &fakeOrchestrator{text: "answer"}
	a := newAssistant(orch, nil, guardrails.Limits{PerMinute: 1, PerHour: 10}, agents.AgentFinanceQA)
	ctx := context.Background()

	first := a.ProcessQuery(ctx, Query{Text: "What is a bond?", SessionID: "s1"})
	assert.False(t, first.Rejected)

	second := a.ProcessQuery(ctx, Query{Text: "What is a stock?", SessionID: "s1"})
	assert.True(t, second.Rejected)
	assert.Equal(t, guardrails.ReasonRateLimited, second.Reason)

	other := a.ProcessQuery(ctx, Query{Text: "What is a stock?", SessionID: "s2"})
	assert.False(t, other.Rejected)
}

func TestProcessQuery_OrchestratorError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("boom")}
	tracker := &fakeTracker{}
	a := newAssistant(orch, tracker, guardrails.DefaultLimits, agents.AgentFinanceQA)

	resp := a.ProcessQuery(context.Background(), Query{Text: "What is a bond?", SessionID: "s1"})

	assert.False(t, resp.Rejected)
	assert.Equal(t, errorRoutingInfo, resp.RoutingInfo)
	assert.True(t, strings.HasPrefix(resp.Text, "I apologize, but I encountered an error processing your question: boom"))
	assert.Contains(t, resp.Text, "Please try rephrasing your question")
	require.Len(t, tracker.captured, 1)
}

func TestProcessQuery_EmptyAnswer(t *testing.T) {
	orch := &fakeOrchestrator{text: "  "}
	a := newAssistant(orch, nil, guardrails.DefaultLimits, agents.AgentFinanceQA)

	resp := a.ProcessQuery(context.Background(), Query{Text: "What is a bond?", SessionID: "s1"})
	assert.Contains(t, resp.Text, "couldn't generate a proper response")
}

func TestUsage(t *testing.T) {
	orch := &fakeOrchestrator{text: "answer"}
	a := newAssistant(orch, nil, guardrails.DefaultLimits, agents.AgentFinanceQA)
	ctx := context.Background()

	a.ProcessQuery(ctx, Query{Text: "What is a bond?", SessionID: "s1"})
	a.ProcessQuery(ctx, Query{Text: "What is a stock?", SessionID: "s1"})
	a.ProcessQuery(ctx, Query{Text: "What is an ETF?", SessionID: "s2"})

	report, err := a.Usage(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, report.Session)
	assert.Equal(t, 2, report.Session.Total)
	assert.Equal(t, 2, report.Totals.Sessions)
	assert.Equal(t, 3, report.Totals.Requests)
	assert.Len(t, report.Agents, 1)

	report, err = a.Usage(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, report.Session)
}

func TestSystemInfo(t *testing.T) {
	a := newAssistant(&fakeOrchestrator{}, nil, guardrails.DefaultLimits, agents.AgentFinanceQA)

	info := a.SystemInfo()
	assert.True(t, strings.HasPrefix(info, "## 🤖 AI Finance Assistant - System Information\n\n### Available Agents:\n\n"))
	assert.Contains(t, info, "**Market Analyst**\n- Tools: 2\n- Capabilities: get_stock_quote, get_market_news\n\n")
	assert.Contains(t, info, "**Finance Q&A**\n- Tools: 1\n")
	assert.Len(t, a.Agents(), 2)
}

func TestExamples(t *testing.T) {
	require.Len(t, Examples, 5)
	for _, e := range Examples {
		assert.NotEmpty(t, e.Key)
		assert.NotEmpty(t, e.Label)
		assert.NotEmpty(t, e.Query)
	}
}
