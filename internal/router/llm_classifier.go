package router

import (
	"context"
	"encoding/json"
	"strings"

	"finassist/internal/adapters/ai"
	"finassist/internal/agents"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/templates"
)

const classifyTemplate = "router/classify"

// LLMClassifier asks the chat model to pick agents. The reply is requested as
// JSON; a plain comma-separated list of names is accepted too.
type LLMClassifier struct {
	provider  ai.ChatProvider
	templates *templates.Registry
	log       *logger.Logger
}

// NewLLMClassifier creates a classifier. A nil registry uses the embedded prompts.
func NewLLMClassifier(provider ai.ChatProvider, reg *templates.Registry) *LLMClassifier {
	if reg == nil {
		reg = templates.Get()
	}
	return &LLMClassifier{
		provider:  provider,
		templates: reg,
		log:       logger.Get().With("component", "llm_classifier"),
	}
}

type agentPrompt struct {
	Name        string
	Description string
	Examples    []string
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (RoutingDecision, error) {
	if c.provider == nil {
		return RoutingDecision{}, errors.Wrap(errors.ErrNotConfigured, "routing provider")
	}

	system, err := c.templates.Render(classifyTemplate, promptData())
	if err != nil {
		return RoutingDecision{}, errors.Wrap(err, "render routing prompt")
	}

	temp := 0.0
	resp, err := c.provider.Chat(ctx, ai.ChatRequest{
		Messages:       []ai.Message{ai.SystemMessage(system), ai.UserMessage(text)},
		Temperature:    &temp,
		MaxTokens:      200,
		ResponseSchema: routingSchema(),
		Purpose:        ai.PurposeRouter,
	})
	if err != nil {
		return RoutingDecision{}, errors.Wrapf(errors.ErrRoutingFailed, "chat: %v", err)
	}

	decision := ParseDecision(resp.Text())
	if len(decision.Agents) == 0 {
		return RoutingDecision{}, errors.Wrapf(errors.ErrRoutingFailed, "no agents in %q", truncate(resp.Text(), 120))
	}
	c.log.Debugw("Classified query", "agents", decision.Agents)
	return decision, nil
}

func promptData() map[string]any {
	list := make([]agentPrompt, 0, len(agents.AllAgentTypes))
	names := make([]string, 0, len(agents.AllAgentTypes))
	for _, t := range agents.AllAgentTypes {
		cfg := agents.DefaultAgentConfigs[t]
		list = append(list, agentPrompt{Name: string(t), Description: cfg.Description, Examples: cfg.Examples})
		names = append(names, string(t))
	}
	return map[string]any{"Agents": list, "Names": names}
}

func routingSchema() *ai.JSONSchema {
	names := make([]any, 0, len(agents.AllAgentTypes))
	for _, t := range agents.AllAgentTypes {
		names = append(names, string(t))
	}
	return &ai.JSONSchema{
		Name:        "routing_decision",
		Description: "Agents that should answer the question",
		Strict:      true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agents": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string", "enum": names},
				},
				"rationale": map[string]any{"type": "string"},
			},
			"required":             []any{"agents", "rationale"},
			"additionalProperties": false,
		},
	}
}

// ParseDecision reads a classifier reply: a JSON object
// {"agents": [...], "rationale": "..."} or a comma-separated list of names.
// Unknown names are dropped.
func ParseDecision(reply string) RoutingDecision {
	reply = stripFences(strings.TrimSpace(reply))

	var parsed struct {
		Agents    []string `json:"agents"`
		Rationale string   `json:"rationale"`
	}
	if strings.HasPrefix(reply, "{") && json.Unmarshal([]byte(reply), &parsed) == nil {
		return RoutingDecision{Agents: toTypes(parsed.Agents), Rationale: parsed.Rationale}
	}

	return RoutingDecision{Agents: toTypes(strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n'
	}))}
}

func toTypes(names []string) []agents.AgentType {
	out := make([]agents.AgentType, 0, len(names))
	for _, n := range names {
		n = strings.Trim(strings.TrimSpace(n), "\"'`*.")
		if t, ok := agents.ParseAgentType(n); ok {
			out = append(out, t)
		}
	}
	return Normalize(out)
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
