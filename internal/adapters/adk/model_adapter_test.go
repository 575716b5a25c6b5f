package adk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"finassist/internal/adapters/ai"
	"finassist/pkg/errors"
)

type stubProvider struct {
	resp    *ai.ChatResponse
	err     error
	lastReq ai.ChatRequest
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func (s *stubProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	s.lastReq = req
	return s.resp, s.err
}

func collect(t *testing.T, adapter *ModelAdapter, req *model.LLMRequest) (*model.LLMResponse, error) {
	t.Helper()
	var (
		got    *model.LLMResponse
		gotErr error
	)
	for resp, err := range adapter.GenerateContent(context.Background(), req, false) {
		got, gotErr = resp, err
	}
	return got, gotErr
}

func TestModelAdapter_Name(t *testing.T) {
	assert.Equal(t, "stub-model", NewModelAdapter(&stubProvider{}, "").Name())
	assert.Equal(t, "gpt-4o", NewModelAdapter(&stubProvider{}, "gpt-4o").Name())
}

func TestModelAdapter_RequestMapping(t *testing.T) {
	provider := &stubProvider{resp: &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: "ok"}}}
	adapter := NewModelAdapter(provider, "")

	temp := float32(0.2)
	req := &model.LLMRequest{
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("You teach personal finance.", genai.RoleUser),
			Temperature:       &temp,
			MaxOutputTokens:   512,
			Tools: []*genai.Tool{{
				FunctionDeclarations: []*genai.FunctionDeclaration{
					{
						Name:        "get_stock_quote",
						Description: "Quote lookup",
						Parameters: &genai.Schema{
							Type:       genai.TypeObject,
							Properties: map[string]*genai.Schema{"symbol": {Type: genai.TypeString}},
							Required:   []string{"symbol"},
						},
					},
					{Name: "get_market_indices", Description: "Index levels"},
				},
			}},
		},
		Contents: []*genai.Content{
			genai.NewContentFromText("What is AAPL trading at?", genai.RoleUser),
			{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{
					FunctionCall: &genai.FunctionCall{ID: "call_1", Name: "get_stock_quote", Args: map[string]any{"symbol": "AAPL"}},
				}},
			},
			{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{ID: "call_1", Name: "get_stock_quote", Response: map[string]any{"price": 190.5}},
				}},
			},
		},
	}

	_, err := collect(t, adapter, req)
	require.NoError(t, err)

	got := provider.lastReq
	assert.Equal(t, "stub-model", got.Model)
	assert.Equal(t, ai.PurposeAgent, got.Purpose)
	assert.Equal(t, 512, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-6)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, ai.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "You teach personal finance.", got.Messages[0].Content)
	assert.Equal(t, ai.RoleUser, got.Messages[1].Role)

	assistant := got.Messages[2]
	assert.Equal(t, ai.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	assert.JSONEq(t, `{"symbol":"AAPL"}`, assistant.ToolCalls[0].Arguments)

	toolMsg := got.Messages[3]
	assert.Equal(t, ai.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.JSONEq(t, `{"price":190.5}`, toolMsg.Content)

	require.Len(t, got.Tools, 2)
	assert.Equal(t, "get_stock_quote", got.Tools[0].Name)
	assert.Equal(t, "object", got.Tools[0].Parameters["type"])
	props := got.Tools[0].Parameters["properties"].(map[string]any)
	assert.Equal(t, "string", props["symbol"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, got.Tools[1].Parameters)
}

func TestModelAdapter_ResponseMapping(t *testing.T) {
	provider := &stubProvider{resp: &ai.ChatResponse{
		Message: ai.Message{
			Role:      ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{ID: "call_9", Name: "calculate_compound_interest", Arguments: `{"principal":1000}`}},
		},
		FinishReason: ai.FinishReasonToolCalls,
		Usage:        ai.Usage{PromptTokens: 20, CompletionTokens: 7, TotalTokens: 27},
	}}

	resp, err := collect(t, NewModelAdapter(provider, ""), &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("grow 1000", genai.RoleUser)},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Content)
	assert.Equal(t, genai.RoleModel, resp.Content.Role)
	require.Len(t, resp.Content.Parts, 1)
	call := resp.Content.Parts[0].FunctionCall
	require.NotNil(t, call)
	assert.Equal(t, "call_9", call.ID)
	assert.Equal(t, map[string]any{"principal": float64(1000)}, call.Args)
	assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
	assert.True(t, resp.TurnComplete)
	assert.EqualValues(t, 27, resp.UsageMetadata.TotalTokenCount)
}

func TestToLLMResponse_MalformedArguments(t *testing.T) {
	resp := ToLLMResponse(&ai.ChatResponse{Message: ai.Message{
		ToolCalls: []ai.ToolCall{{ID: "c", Name: "get_stock_quote", Arguments: "{not json"}},
	}})
	assert.Equal(t, genai.FinishReasonMalformedFunctionCall, resp.FinishReason)
	assert.Contains(t, resp.ErrorMessage, "get_stock_quote")
}

func TestToLLMResponse_Length(t *testing.T) {
	resp := ToLLMResponse(&ai.ChatResponse{Message: ai.Message{Content: "cut"}, FinishReason: ai.FinishReasonLength})
	assert.Equal(t, genai.FinishReasonMaxTokens, resp.FinishReason)
	assert.Equal(t, "cut", resp.Content.Parts[0].Text)
}

func TestModelAdapter_ProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.ErrProviderUnavailable}
	_, err := collect(t, NewModelAdapter(provider, ""), &model.LLMRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
}

func TestToChatRequest_Nil(t *testing.T) {
	_, err := ToChatRequest(nil, "m")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestToMessages_ToolError(t *testing.T) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
			ID:       "call-1",
			Name:     "get_stock_quote",
			Response: map[string]any{"error": errors.New("quote unavailable")},
		}}},
	}

	msgs := toMessages(content)
	require.Len(t, msgs, 1)
	assert.Equal(t, ai.RoleTool, msgs[0].Role)
	assert.JSONEq(t, `{"error":"quote unavailable"}`, msgs[0].Content)
}
