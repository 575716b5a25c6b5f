package adk

import (
	"context"
	"encoding/json"
	"iter"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"finassist/internal/adapters/ai"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// ModelAdapter adapts an ai.ChatProvider to ADK's model.LLM interface so
// llmagent can drive an OpenAI-compatible model.
type ModelAdapter struct {
	provider  ai.ChatProvider
	modelName string
	log       *logger.Logger
}

// NewModelAdapter creates a new ADK model adapter. An empty modelName uses
// the provider default.
func NewModelAdapter(provider ai.ChatProvider, modelName string) *ModelAdapter {
	if modelName == "" {
		modelName = provider.Model()
	}
	return &ModelAdapter{
		provider:  provider,
		modelName: modelName,
		log:       logger.Get().With("component", "model_adapter", "model", modelName),
	}
}

// Ensure ModelAdapter implements model.LLM
var _ model.LLM = (*ModelAdapter)(nil)

// Name returns the model name.
func (m *ModelAdapter) Name() string {
	return m.modelName
}

// GenerateContent implements model.LLM. Streaming requests are answered with
// a single complete response.
func (m *ModelAdapter) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq, err := ToChatRequest(req, m.modelName)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := m.provider.Chat(ctx, chatReq)
		if err != nil {
			m.log.Warnw("LLM call failed", "error", err)
			yield(nil, errors.Wrap(err, "chat provider failed"))
			return
		}

		yield(ToLLMResponse(resp), nil)
	}
}

// ToChatRequest converts an ADK request into a provider chat request.
func ToChatRequest(req *model.LLMRequest, defaultModel string) (ai.ChatRequest, error) {
	chatReq := ai.ChatRequest{Model: defaultModel, Purpose: ai.PurposeAgent}
	if req == nil {
		return chatReq, errors.Wrap(errors.ErrInvalidInput, "nil LLM request")
	}
	if req.Model != "" {
		chatReq.Model = req.Model
	}

	if cfg := req.Config; cfg != nil {
		if cfg.SystemInstruction != nil {
			if text := joinText(cfg.SystemInstruction); text != "" {
				chatReq.Messages = append(chatReq.Messages, ai.SystemMessage(text))
			}
		}
		if cfg.Temperature != nil {
			t := float64(*cfg.Temperature)
			chatReq.Temperature = &t
		}
		if cfg.MaxOutputTokens > 0 {
			chatReq.MaxTokens = int(cfg.MaxOutputTokens)
		}
		for _, tool := range cfg.Tools {
			if tool == nil {
				continue
			}
			for _, decl := range tool.FunctionDeclarations {
				def, err := toToolDefinition(decl)
				if err != nil {
					return chatReq, err
				}
				chatReq.Tools = append(chatReq.Tools, def)
			}
		}
	}

	for _, content := range req.Contents {
		chatReq.Messages = append(chatReq.Messages, toMessages(content)...)
	}

	return chatReq, nil
}

// toMessages maps one genai content to chat messages. Function responses
// become one tool message each; function calls ride on an assistant message.
func toMessages(content *genai.Content) []ai.Message {
	if content == nil {
		return nil
	}

	var (
		out       []ai.Message
		text      []string
		toolCalls []ai.ToolCall
	)

	for _, part := range content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.FunctionResponse != nil:
			fr := part.FunctionResponse
			payload, err := json.Marshal(errorsAsText(fr.Response))
			if err != nil {
				payload = []byte(`{"error":"unserializable tool result"}`)
			}
			out = append(out, ai.Message{
				Role:       ai.RoleTool,
				ToolCallID: callID(fr.ID, fr.Name),
				Name:       fr.Name,
				Content:    string(payload),
			})
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			args, err := json.Marshal(fc.Args)
			if err != nil || fc.Args == nil {
				args = []byte("{}")
			}
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:        callID(fc.ID, fc.Name),
				Name:      fc.Name,
				Arguments: string(args),
			})
		case part.Text != "" && !part.Thought:
			text = append(text, part.Text)
		}
	}

	if len(text) == 0 && len(toolCalls) == 0 {
		return out
	}

	role := ai.RoleUser
	if content.Role == genai.RoleModel {
		role = ai.RoleAssistant
	}
	msg := ai.Message{Role: role, Content: strings.Join(text, "\n"), ToolCalls: toolCalls}
	if len(toolCalls) > 0 {
		msg.Role = ai.RoleAssistant
	}

	// the assistant turn that issued calls must precede their results
	return append([]ai.Message{msg}, out...)
}

// errorsAsText replaces error values, which marshal to "{}", with their
// messages. ADK reports failed tool calls as {"error": err}.
func errorsAsText(resp map[string]any) map[string]any {
	var out map[string]any
	for k, v := range resp {
		err, ok := v.(error)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(resp))
			for k2, v2 := range resp {
				out[k2] = v2
			}
		}
		out[k] = err.Error()
	}
	if out == nil {
		return resp
	}
	return out
}

func callID(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

func joinText(content *genai.Content) string {
	var parts []string
	for _, p := range content.Parts {
		if p != nil && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toToolDefinition(decl *genai.FunctionDeclaration) (ai.ToolDefinition, error) {
	def := ai.ToolDefinition{Name: decl.Name, Description: decl.Description}

	var source any
	switch {
	case decl.ParametersJsonSchema != nil:
		source = decl.ParametersJsonSchema
	case decl.Parameters != nil:
		source = decl.Parameters
	default:
		def.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		return def, nil
	}

	raw, err := json.Marshal(source)
	if err != nil {
		return def, errors.Wrapf(err, "marshal schema for tool %s", decl.Name)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return def, errors.Wrapf(err, "decode schema for tool %s", decl.Name)
	}
	def.Parameters = normalizeSchema(params)
	return def, nil
}

// normalizeSchema lowercases genai type names ("OBJECT" -> "object") so the
// schema is valid JSON Schema for OpenAI.
func normalizeSchema(node map[string]any) map[string]any {
	for k, v := range node {
		switch val := v.(type) {
		case string:
			if k == "type" {
				node[k] = strings.ToLower(val)
			}
		case map[string]any:
			node[k] = normalizeSchema(val)
		case []any:
			for i, item := range val {
				if m, ok := item.(map[string]any); ok {
					val[i] = normalizeSchema(m)
				}
			}
		}
	}
	if t, _ := node["type"].(string); t == "object" {
		if _, ok := node["properties"]; !ok {
			node["properties"] = map[string]any{}
		}
	}
	return node
}

// ToLLMResponse converts a provider response to ADK format.
func ToLLMResponse(resp *ai.ChatResponse) *model.LLMResponse {
	content := &genai.Content{Role: genai.RoleModel}

	if resp.Message.Content != "" {
		content.Parts = append(content.Parts, genai.NewPartFromText(resp.Message.Content))
	}

	for _, tc := range resp.Message.ToolCalls {
		args := map[string]any{}
		if strings.TrimSpace(tc.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				return &model.LLMResponse{
					FinishReason: genai.FinishReasonMalformedFunctionCall,
					ErrorMessage: "malformed arguments for " + tc.Name + ": " + err.Error(),
					TurnComplete: true,
				}
			}
		}
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
		})
	}

	out := &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		},
	}

	switch resp.FinishReason {
	case ai.FinishReasonLength:
		out.FinishReason = genai.FinishReasonMaxTokens
	case ai.FinishReasonFiltered:
		out.FinishReason = genai.FinishReasonSafety
	default:
		out.FinishReason = genai.FinishReasonStop
	}

	return out
}
