// Package guardrails validates user questions before they reach the agents
// and softens agent answers before they reach the user.
package guardrails

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonEmpty           = "empty"
	ReasonTooLong         = "too_long"
	ReasonRateLimited     = "rate_limited"
	ReasonProhibited      = "prohibited_topic"
	ReasonSQLInjection    = "sql_injection"
	ReasonScriptInjection = "script_injection"
	ReasonSpecialChars    = "special_characters"
	ReasonUnsafeIntent    = "unsafe_intent"
)

// DefaultMaxInputLength is the input ceiling in characters.
const DefaultMaxInputLength = 2000

const (
	emptyMessage        = "⚠️ Please enter a valid question."
	unsafeIntentMessage = "⚠️ I can only help with educational finance questions. This request appears to involve illegal activity or promised returns, which I cannot assist with."
	emptyOutputMessage  = "I apologize, but I couldn't generate a proper response. Please try rephrasing your question."
)

// Config holds the filter thresholds.
type Config struct {
	MaxInputLength int
	Limits         Limits
}

// InputResult is the outcome of ValidateInput. Message is the user-facing
// refusal when OK is false.
type InputResult struct {
	OK        bool
	Sanitized string
	Message   string
	Reason    string
}

// OutputResult is the outcome of ValidateOutput.
type OutputResult struct {
	OK          bool
	Text        string
	Message     string
	Disclaimers []string
	Rewrites    []string
}

// Filter is the input/output guardrail layer around the agent pipeline.
type Filter struct {
	maxInputLength int
	limiter        SessionLimiter
	intent         *IntentChecker
	rules          []Rule
	log            *logger.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithIntentChecker enables the model-based intent check after the static checks.
func WithIntentChecker(c *IntentChecker) Option {
	return func(f *Filter) { f.intent = c }
}

// WithRules replaces the output rewrite rules.
func WithRules(rules []Rule) Option {
	return func(f *Filter) { f.rules = rules }
}

// NewFilter creates a guardrail filter. A nil limiter gets an in-memory one.
func NewFilter(cfg Config, limiter SessionLimiter, opts ...Option) *Filter {
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = DefaultMaxInputLength
	}
	if cfg.Limits.PerMinute <= 0 || cfg.Limits.PerHour <= 0 {
		cfg.Limits = DefaultLimits
	}
	if limiter == nil {
		limiter = NewMemoryLimiter(cfg.Limits, nil)
	}

	f := &Filter{
		maxInputLength: cfg.MaxInputLength,
		limiter:        limiter,
		rules:          OutputRules,
		log:            logger.Get().With("component", "guardrails"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) reject(sessionID, reason, message string) InputResult {
	metrics.GuardrailRejections.WithLabelValues(reason).Inc()
	f.log.Warnw("Input rejected", "session_id", sessionID, "reason", reason)
	return InputResult{Message: message, Reason: reason}
}

// ValidateInput runs the input checks in order: emptiness, length, session
// rate limit, sanitization, prohibited topics, injection patterns and the
// optional intent check. The rate limit slot is reserved before the content
// checks and released when one of them rejects, so concurrent queries of a
// session never exceed the limits and only accepted queries stay counted.
func (f *Filter) ValidateInput(ctx context.Context, text, sessionID string) InputResult {
	if strings.TrimSpace(text) == "" {
		return f.reject(sessionID, ReasonEmpty, emptyMessage)
	}

	if n := utf8.RuneCountInString(text); n > f.maxInputLength {
		return f.reject(sessionID, ReasonTooLong, fmt.Sprintf(
			"⚠️ Your question is too long. Please limit to %d characters (current: %d).", f.maxInputLength, n))
	}

	release, err := f.limiter.Reserve(ctx, sessionID)
	if err != nil {
		var limitErr *LimitError
		if errors.As(err, &limitErr) {
			return f.reject(sessionID, ReasonRateLimited, rateLimitMessage(limitErr))
		}
		f.log.Warnw("Rate limiter unavailable, allowing request", "session_id", sessionID, "error", err)
	}

	res := f.screen(ctx, sessionID, text)
	if !res.OK && release != nil {
		// rejected queries are not counted
		if err := release(context.WithoutCancel(ctx)); err != nil {
			f.log.Warnw("Failed to release rate limit slot", "session_id", sessionID, "error", err)
		}
	}
	return res
}

// screen runs the content checks on a query that already holds a rate limit slot.
func (f *Filter) screen(ctx context.Context, sessionID, text string) InputResult {
	sanitized := Sanitize(text)

	if topic, ok := prohibitedTopic(sanitized); ok {
		return f.reject(sessionID, ReasonProhibited, prohibitedMessage(topic))
	}

	for _, class := range maliciousClasses {
		for _, p := range class.patterns {
			if p.MatchString(sanitized) {
				return f.reject(sessionID, class.reason, class.message)
			}
		}
	}

	if ratio := specialCharRatio(sanitized); ratio > maxSpecialCharRatio {
		return f.reject(sessionID, ReasonSpecialChars, specialCharsMessage)
	}

	if f.intent != nil {
		if res := f.intent.CheckIntent(ctx, sanitized); !res.Safe {
			return f.reject(sessionID, ReasonUnsafeIntent, unsafeIntentMessage)
		}
	}

	f.log.Debugw("Input accepted", "session_id", sessionID)
	return InputResult{OK: true, Sanitized: sanitized}
}

func rateLimitMessage(err *LimitError) string {
	if err.Window == WindowHour {
		return fmt.Sprintf("⚠️ You've reached the hourly limit of %d questions. Please try again later.", err.Limit)
	}
	return fmt.Sprintf("⚠️ Too many requests. Please wait a moment before asking another question. (Limit: %d per minute)", err.Limit)
}

func prohibitedTopic(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, topic := range ProhibitedTopics {
		if strings.Contains(lower, topic) {
			return topic, true
		}
	}
	return "", false
}

func prohibitedMessage(topic string) string {
	return fmt.Sprintf(`⚠️ I cannot assist with questions about %s.

This topic may involve illegal activities, unethical financial practices or high-risk schemes.

I'm designed to provide educational financial information. Please ask me about general financial concepts, investment education, retirement planning, portfolio diversification or tax-advantaged accounts.`, topic)
}

// ValidateOutput appends the disclaimers the original query calls for and
// rewrites prescriptive phrasing. Only an empty response fails.
func (f *Filter) ValidateOutput(response, query string) OutputResult {
	if strings.TrimSpace(response) == "" {
		f.log.Warnw("Empty response generated")
		return OutputResult{Message: emptyOutputMessage}
	}

	text, applied := AddDisclaimers(response, query)
	text, fired := ApplyRules(text, f.rules)
	for _, name := range fired {
		metrics.OutputRewrites.WithLabelValues(name).Inc()
	}
	if len(fired) > 0 {
		f.log.Infow("Rewrote prescriptive language", "rules", fired)
	}

	return OutputResult{OK: true, Text: text, Disclaimers: applied, Rewrites: fired}
}

// AddDisclaimers appends the disclaimers triggered by query, plus the general
// disclaimer unless response already has one.
func AddDisclaimers(response, query string) (string, []string) {
	var (
		names []string
		texts []string
	)
	for _, d := range Disclaimers {
		if d.Trigger.MatchString(query) {
			names = append(names, d.Name)
			texts = append(texts, d.Text)
		}
	}

	lower := strings.ToLower(response)
	general := true
	for _, marker := range selfDisclaimed {
		if strings.Contains(lower, marker) {
			general = false
			break
		}
	}
	if general {
		names = append(names, "general")
		texts = append(texts, GeneralDisclaimer)
	}

	if len(texts) == 0 {
		return response, nil
	}
	return response + DisclaimerSeparator + strings.Join(texts, "\n\n"), names
}

// Stats returns the request counts of one session.
func (f *Filter) Stats(ctx context.Context, sessionID string) (SessionUsage, error) {
	return f.limiter.Usage(ctx, sessionID)
}

// Totals returns usage across all sessions.
func (f *Filter) Totals(ctx context.Context) (Totals, error) {
	return f.limiter.Totals(ctx)
}

// ResetSession clears a session's rate-limit history.
func (f *Filter) ResetSession(ctx context.Context, sessionID string) error {
	return f.limiter.Reset(ctx, sessionID)
}

// GlobalUsage implements metrics.UsageSource.
func (f *Filter) GlobalUsage() metrics.UsageSnapshot {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	t, err := f.limiter.Totals(ctx)
	if err != nil {
		f.log.Warnw("Usage totals unavailable", "error", err)
		return metrics.UsageSnapshot{}
	}
	return metrics.UsageSnapshot{
		TotalSessions:  t.Sessions,
		TotalRequests:  t.Requests,
		ActiveSessions: t.ActiveSessions,
	}
}
