package shared

import (
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"finassist/internal/tools/middleware"
	"finassist/pkg/errors"
)

// ToolBuilder provides a fluent API for creating ADK function tools with
// middleware.
type ToolBuilder[A, R any] struct {
	name        string
	description string
	fn          Handler[A, R]
	deps        Deps

	withRetry   bool
	retryConfig middleware.RetryMiddleware

	timeoutConfig middleware.TimeoutMiddleware

	withStats bool
}

// NewToolBuilder creates a builder for a tool. Every tool gets a deadline of
// deps.ToolTimeout unless WithTimeout overrides it.
func NewToolBuilder[A, R any](name, description string, fn Handler[A, R], deps Deps) *ToolBuilder[A, R] {
	return &ToolBuilder[A, R]{
		name:          name,
		description:   description,
		fn:            fn,
		deps:          deps,
		retryConfig:   middleware.RetryMiddleware{Attempts: 3, Backoff: 500 * time.Millisecond},
		timeoutConfig: middleware.TimeoutMiddleware{Timeout: deps.toolTimeout()},
	}
}

// WithRetry enables retry middleware
func (b *ToolBuilder[A, R]) WithRetry(attempts int, backoff time.Duration) *ToolBuilder[A, R] {
	b.withRetry = true
	b.retryConfig = middleware.RetryMiddleware{
		Attempts: attempts,
		Backoff:  backoff,
	}
	return b
}

// WithTimeout overrides the per-call deadline
func (b *ToolBuilder[A, R]) WithTimeout(timeout time.Duration) *ToolBuilder[A, R] {
	b.timeoutConfig = middleware.TimeoutMiddleware{Timeout: timeout}
	return b
}

// WithStats enables metrics and call logging
func (b *ToolBuilder[A, R]) WithStats() *ToolBuilder[A, R] {
	b.withStats = true
	return b
}

// Handler returns fn wrapped in the configured middleware.
func (b *ToolBuilder[A, R]) Handler() Handler[A, R] {
	fn := b.fn

	// Order: retry (innermost) -> timeout -> stats (outermost, covers retries).
	if b.withRetry {
		fn = middleware.Retry(b.retryConfig, fn)
	}
	fn = middleware.Timeout(b.timeoutConfig, b.name, fn)
	if b.withStats {
		fn = middleware.Stats(middleware.StatsMiddleware{
			Log:    b.deps.Logger(),
			Fields: logFields,
		}, b.name, fn)
	}
	return fn
}

// Build creates the ADK tool. It panics when the argument or result type
// cannot be described as JSON schema, which is a programming error.
func (b *ToolBuilder[A, R]) Build() tool.Tool {
	fn := b.Handler()

	t, err := functiontool.New(
		functiontool.Config{
			Name:        b.name,
			Description: b.description,
		},
		func(tc tool.Context, args A) (R, error) {
			ctx := WithInvocationMetadata(tc, InvocationMetadata{
				Agent:     tc.AgentName(),
				SessionID: tc.SessionID(),
				CallID:    tc.FunctionCallID(),
			})
			return fn(ctx, args)
		})
	if err != nil {
		panic(errors.Wrapf(err, "build tool %s", b.name))
	}
	return t
}
