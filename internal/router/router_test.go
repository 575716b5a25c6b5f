package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/adapters/ai"
	"finassist/internal/agents"
	"finassist/pkg/errors"
)

func TestRoute(t *testing.T) {
	r := New(StaticClassifier{Decision: RoutingDecision{
		Agents:    []agents.AgentType{"market_analyst", "astrologer", "finance_qa", "market_analyst"},
		Rationale: "price and basics",
	}})

	d := r.Route(context.Background(), "What's Tesla's price and should I buy it?")
	assert.Equal(t, []agents.AgentType{agents.AgentMarketAnalyst, agents.AgentFinanceQA}, d.Agents)
	assert.Equal(t, "price and basics", d.Rationale)
	assert.False(t, d.Fallback)
}

func TestRoute_CapsAgents(t *testing.T) {
	r := New(StaticClassifier{Decision: RoutingDecision{Agents: agents.AllAgentTypes}})
	d := r.Route(context.Background(), "everything")
	assert.Len(t, d.Agents, MaxAgents)
	assert.Equal(t, agents.AllAgentTypes[:MaxAgents], d.Agents)
}

func TestRoute_Fallback(t *testing.T) {
	cases := map[string]Classifier{
		"error":   StaticClassifier{Err: errors.ErrRoutingFailed},
		"empty":   StaticClassifier{},
		"unknown": StaticClassifier{Decision: RoutingDecision{Agents: []agents.AgentType{"crypto_bot"}}},
		"nil":     nil,
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			d := New(c).Route(context.Background(), "hello")
			assert.Equal(t, []agents.AgentType{agents.AgentFinanceQA}, d.Agents)
			assert.True(t, d.Fallback)
		})
	}
}

func TestClassifierFunc(t *testing.T) {
	var got string
	r := New(ClassifierFunc(func(_ context.Context, text string) (RoutingDecision, error) {
		got = text
		return RoutingDecision{Agents: []agents.AgentType{agents.AgentTaxEducator}}, nil
	}))
	d := r.Route(context.Background(), "Roth IRA?")
	assert.Equal(t, "Roth IRA?", got)
	assert.Equal(t, []agents.AgentType{agents.AgentTaxEducator}, d.Agents)
}

func TestExplain(t *testing.T) {
	one := RoutingDecision{Agents: []agents.AgentType{agents.AgentFinanceQA}}
	assert.Equal(t, "Routing to: **Finance Q&A (general education)**", Explain(one))

	two := RoutingDecision{Agents: []agents.AgentType{agents.AgentPortfolioAnalyzer, agents.AgentMarketAnalyst}}
	assert.Equal(t,
		"Routing to: **Portfolio Analyzer (investment analysis), Market Analyst (real-time data)**",
		New(nil).Explain(two))
}

func TestParseDecision(t *testing.T) {
	d := ParseDecision(`{"agents": ["portfolio_analyzer", "market_analyst"], "rationale": "holdings plus prices"}`)
	assert.Equal(t, []agents.AgentType{agents.AgentPortfolioAnalyzer, agents.AgentMarketAnalyst}, d.Agents)
	assert.Equal(t, "holdings plus prices", d.Rationale)

	d = ParseDecision("```json\n{\"agents\": [\"goal_planner\"], \"rationale\": \"\"}\n```")
	assert.Equal(t, []agents.AgentType{agents.AgentGoalPlanner}, d.Agents)

	d = ParseDecision("Market_Analyst, finance_qa")
	assert.Equal(t, []agents.AgentType{agents.AgentMarketAnalyst, agents.AgentFinanceQA}, d.Agents)

	d = ParseDecision("**tax_educator**")
	assert.Equal(t, []agents.AgentType{agents.AgentTaxEducator}, d.Agents)

	assert.Empty(t, ParseDecision("I am not sure").Agents)
}

type stubChat struct {
	reply string
	err   error
	req   ai.ChatRequest
}

func (s *stubChat) Name() string  { return "stub" }
func (s *stubChat) Model() string { return "stub-model" }

func (s *stubChat) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: s.reply}}, nil
}

func TestLLMClassifier(t *testing.T) {
	chat := &stubChat{reply: `{"agents":["market_analyst"],"rationale":"live price"}`}
	c := NewLLMClassifier(chat, nil)

	d, err := c.Classify(context.Background(), "What's the current price of Apple stock?")
	require.NoError(t, err)
	assert.Equal(t, []agents.AgentType{agents.AgentMarketAnalyst}, d.Agents)

	require.Len(t, chat.req.Messages, 2)
	assert.Equal(t, ai.PurposeRouter, chat.req.Purpose)
	assert.Equal(t, "What's the current price of Apple stock?", chat.req.Messages[1].Content)
	assert.Contains(t, chat.req.Messages[0].Content, "tax_educator: ")
	require.NotNil(t, chat.req.ResponseSchema)
	assert.Equal(t, "routing_decision", chat.req.ResponseSchema.Name)

	chat.reply = "no idea"
	_, err = c.Classify(context.Background(), "hm")
	assert.True(t, errors.Is(err, errors.ErrRoutingFailed))

	chat.err = errors.ErrProviderUnavailable
	_, err = c.Classify(context.Background(), "hm")
	assert.True(t, errors.Is(err, errors.ErrRoutingFailed))

	// classifier errors end in the default agent
	d = New(c).Route(context.Background(), "hm")
	assert.Equal(t, []agents.AgentType{agents.AgentFinanceQA}, d.Agents)
}
