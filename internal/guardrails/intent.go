package guardrails

import (
	"context"
	"strings"

	"finassist/internal/adapters/ai"
	"finassist/pkg/logger"
	"finassist/pkg/templates"
)

const (
	intentTemplate       = "guardrails/intent"
	intentSystemTemplate = "guardrails/intent_system"
)

// IntentResult is the model's safety reading of a query.
type IntentResult struct {
	Safe           bool
	IllegalContent bool
	Guarantees     bool
	Educational    bool
	Analysis       string
}

// IntentChecker asks the chat model whether a query seeks illegal content or
// guaranteed returns. It fails open: any error yields a safe result.
type IntentChecker struct {
	provider  ai.ChatProvider
	templates *templates.Registry
	log       *logger.Logger
}

// NewIntentChecker creates an intent checker. A nil registry uses the embedded prompts.
func NewIntentChecker(provider ai.ChatProvider, reg *templates.Registry) *IntentChecker {
	if reg == nil {
		reg = templates.Get()
	}
	return &IntentChecker{
		provider:  provider,
		templates: reg,
		log:       logger.Get().With("component", "intent_checker"),
	}
}

// CheckIntent classifies a query.
func (c *IntentChecker) CheckIntent(ctx context.Context, query string) IntentResult {
	safe := IntentResult{Safe: true, Educational: true}

	system, err := c.templates.Render(intentSystemTemplate, nil)
	if err != nil {
		c.log.Warnw("Intent system prompt unavailable", "error", err)
		return safe
	}
	prompt, err := c.templates.Render(intentTemplate, map[string]any{"Query": query})
	if err != nil {
		c.log.Warnw("Intent prompt unavailable", "error", err)
		return safe
	}

	temp := 0.0
	resp, err := c.provider.Chat(ctx, ai.ChatRequest{
		Messages:    []ai.Message{ai.SystemMessage(system), ai.UserMessage(prompt)},
		Temperature: &temp,
		MaxTokens:   200,
		Purpose:     ai.PurposeIntent,
	})
	if err != nil {
		c.log.Warnw("Intent check failed, allowing query", "error", err)
		return safe
	}

	result := ParseIntent(resp.Text())
	if !result.Safe {
		c.log.Infow("Intent check flagged query",
			"illegal", result.IllegalContent,
			"guarantees", result.Guarantees,
			"educational", result.Educational,
		)
	}
	return result
}

// ParseIntent reads the "Key: yes|no" lines of an intent reply. A query is
// safe when it is educational and neither illegal nor asking for guarantees.
func ParseIntent(analysis string) IntentResult {
	lower := strings.ToLower(analysis)
	r := IntentResult{
		IllegalContent: strings.Contains(lower, "illegal-content: yes"),
		Guarantees:     strings.Contains(lower, "guarantees: yes"),
		Educational:    strings.Contains(lower, "educational: yes"),
		Analysis:       strings.TrimSpace(analysis),
	}
	r.Safe = r.Educational && !r.IllegalContent && !r.Guarantees
	return r
}
