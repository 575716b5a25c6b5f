package agents

import (
	"context"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"

	"finassist/pkg/errors"
)

// scriptedLLM answers every request with reply(req).
type scriptedLLM struct {
	mu       sync.Mutex
	requests []*model.LLMRequest
	reply    func(req *model.LLMRequest) *model.LLMResponse
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(s.reply(req), nil)
	}
}

func (s *scriptedLLM) lastRequest() *model.LLMRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func textReply(text string) *model.LLMResponse {
	return &model.LLMResponse{
		Content: genai.NewContentFromText(text, genai.RoleModel),
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 20,
		},
		TurnComplete: true,
	}
}

func TestADKAgent_Invoke(t *testing.T) {
	llm := &scriptedLLM{reply: func(*model.LLMRequest) *model.LLMResponse {
		return textReply("Compound interest is interest earned on interest.")
	}}
	usage := NewUsageTracker()

	cfg, _ := ConfigFor(AgentFinanceQA, 0)
	a, err := NewADKAgent(cfg, ADKAgentDeps{Model: llm, Usage: usage})
	require.NoError(t, err)

	out, err := a.Invoke(context.Background(), "What is compound interest?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Compound interest is interest earned on interest.", out)

	snap := usage.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(100), snap[0].InputTokens)
	assert.Equal(t, int64(20), snap[0].OutputTokens)

	// the second turn sees the first one
	_, err = a.Invoke(context.Background(), "Give me an example.", "s1")
	require.NoError(t, err)
	followUp := len(llm.lastRequest().Contents)
	assert.GreaterOrEqual(t, followUp, 3)

	// other sessions start fresh
	_, err = a.Invoke(context.Background(), "What is a bond?", "s2")
	require.NoError(t, err)
	assert.Less(t, len(llm.lastRequest().Contents), followUp)
}

func TestADKAgent_Instruction(t *testing.T) {
	llm := &scriptedLLM{reply: func(*model.LLMRequest) *model.LLMResponse { return textReply("ok") }}

	cfg, _ := ConfigFor(AgentTaxEducator, 0)
	a, err := NewADKAgent(cfg, ADKAgentDeps{Model: llm})
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), "Roth or traditional?", "s1")
	require.NoError(t, err)

	req := llm.lastRequest()
	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.SystemInstruction)
	var instruction string
	for _, p := range req.Config.SystemInstruction.Parts {
		instruction += p.Text
	}
	assert.Contains(t, instruction, "Tax Educator")
}

func TestADKAgent_EmptyAnswer(t *testing.T) {
	llm := &scriptedLLM{reply: func(*model.LLMRequest) *model.LLMResponse { return textReply("   ") }}

	cfg, _ := ConfigFor(AgentGoalPlanner, 0)
	a, err := NewADKAgent(cfg, ADKAgentDeps{Model: llm})
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), "Plan my retirement", "s1")
	assert.True(t, errors.Is(err, errors.ErrEmptyResponse))
}

type echoArgs struct {
	Symbol string `json:"symbol"`
}

type echoResult struct {
	Price float64 `json:"price"`
}

func TestADKAgent_ToolCall(t *testing.T) {
	var calls int
	quote, err := functiontool.New(functiontool.Config{Name: "get_stock_quote", Description: "quote"},
		func(_ tool.Context, args echoArgs) (echoResult, error) {
			calls++
			assert.Equal(t, "AAPL", args.Symbol)
			return echoResult{Price: 187.5}, nil
		})
	require.NoError(t, err)

	llm := &scriptedLLM{reply: func(req *model.LLMRequest) *model.LLMResponse {
		last := req.Contents[len(req.Contents)-1]
		for _, p := range last.Parts {
			if p.FunctionResponse != nil {
				return textReply("Apple trades at $187.50.")
			}
		}
		return &model.LLMResponse{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{ID: "call-1", Name: "get_stock_quote", Args: map[string]any{"symbol": "AAPL"}},
			}}},
			TurnComplete: true,
		}
	}}

	cfg, _ := ConfigFor(AgentMarketAnalyst, 0)
	a, err := NewADKAgent(cfg, ADKAgentDeps{Model: llm, Tools: []tool.Tool{quote}})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Info().ToolCount)

	out, err := a.Invoke(context.Background(), "Price of Apple?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Apple trades at $187.50.", out)
	assert.Equal(t, 1, calls)
}

func TestNewADKAgent_RequiresModel(t *testing.T) {
	cfg, _ := ConfigFor(AgentFinanceQA, 0)
	_, err := NewADKAgent(cfg, ADKAgentDeps{})
	assert.True(t, errors.Is(err, errors.ErrNotConfigured))
}

func TestConfig(t *testing.T) {
	for _, at := range AllAgentTypes {
		cfg, ok := DefaultAgentConfigs[at]
		require.True(t, ok, at)
		assert.Equal(t, at, cfg.Type)
		assert.NotEmpty(t, cfg.Tools, at)
		assert.Equal(t, "agents/"+string(at), cfg.SystemPromptTemplate)
	}

	assert.Equal(t, 90*time.Second, DefaultAgentConfigs[AgentMarketAnalyst].TotalTimeout)
	assert.Equal(t, time.Minute, DefaultAgentConfigs[AgentFinanceQA].TotalTimeout)

	cfg, ok := ConfigFor(AgentGoalPlanner, 5*time.Second)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, cfg.TotalTimeout)

	_, ok = ConfigFor("crypto_trader", 0)
	assert.False(t, ok)

	assert.Equal(t, defaultTimeoutPerTool, MinTimeoutPerTool())
}

func TestParseAgentType(t *testing.T) {
	at, ok := ParseAgentType(" Market Analyst ")
	assert.True(t, ok)
	assert.Equal(t, AgentMarketAnalyst, at)

	at, ok = ParseAgentType("tax-educator")
	assert.True(t, ok)
	assert.Equal(t, AgentTaxEducator, at)

	_, ok = ParseAgentType("astrologer")
	assert.False(t, ok)

	assert.Equal(t, "Finance Q&A (general education)", AgentFinanceQA.Label())
	assert.Equal(t, "Portfolio Analyzer", AgentPortfolioAnalyzer.ShortLabel())
	assert.Equal(t, "unknown", AgentType("unknown").Label())
}
