package agents

import (
	"context"
	"strings"

	"finassist/internal/adapters/ai"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/templates"
)

const (
	synthesisSystemTemplate = "synthesis/system"
	synthesisMergeTemplate  = "synthesis/merge"

	synthesisTemperature = 0.3
	synthesisMaxTokens   = 2000
)

// Section is one agent's contribution to a merged answer.
type Section struct {
	Label string
	Text  string
}

// Synthesizer merges several specialist answers into one.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, sections []Section) (string, error)
}

// LLMSynthesizer asks the chat model to merge the sections.
type LLMSynthesizer struct {
	provider  ai.ChatProvider
	templates *templates.Registry
	log       *logger.Logger
}

// NewLLMSynthesizer creates a synthesizer. A nil registry uses the embedded prompts.
func NewLLMSynthesizer(provider ai.ChatProvider, reg *templates.Registry) *LLMSynthesizer {
	if reg == nil {
		reg = templates.Get()
	}
	return &LLMSynthesizer{
		provider:  provider,
		templates: reg,
		log:       logger.Get().With("component", "synthesizer"),
	}
}

// Synthesize implements Synthesizer.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, query string, sections []Section) (string, error) {
	if s.provider == nil {
		return "", errors.Wrap(errors.ErrNotConfigured, "synthesis provider")
	}

	system, err := s.templates.Render(synthesisSystemTemplate, nil)
	if err != nil {
		return "", errors.Wrap(err, "render synthesis system prompt")
	}
	prompt, err := s.templates.Render(synthesisMergeTemplate, map[string]any{
		"Query":    query,
		"Sections": sections,
	})
	if err != nil {
		return "", errors.Wrap(err, "render synthesis prompt")
	}

	temp := synthesisTemperature
	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Messages:    []ai.Message{ai.SystemMessage(system), ai.UserMessage(prompt)},
		Temperature: &temp,
		MaxTokens:   synthesisMaxTokens,
		Purpose:     ai.PurposeSynthesis,
	})
	if err != nil {
		return "", errors.Wrapf(errors.ErrSynthesisFailed, "chat: %v", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.Wrap(errors.ErrSynthesisFailed, "empty synthesis")
	}

	s.log.Debugw("Answers merged", "sections", len(sections), "chars", len(text))
	return text, nil
}

// ConcatSections is the synthesis fallback: every section under a
// "=== Label ===" heading, separated by blank lines.
func ConcatSections(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, "=== "+s.Label+" ===\n"+s.Text)
	}
	return strings.Join(parts, "\n\n")
}
