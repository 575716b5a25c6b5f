package middleware

import (
	"context"
	"time"

	"finassist/pkg/errors"
)

// RetryMiddleware retries tool execution on error with optional backoff.
type RetryMiddleware struct {
	Attempts int
	Backoff  time.Duration
}

// Retry adds retry semantics to fn. Input errors and cancellations are
// returned immediately; otherwise the error of the last attempt is returned.
func Retry[A, R any](m RetryMiddleware, fn Func[A, R]) Func[A, R] {
	attempts := m.Attempts
	if attempts <= 1 {
		return fn
	}

	return func(ctx context.Context, args A) (R, error) {
		var (
			result R
			err    error
		)

		for i := 0; i < attempts; i++ {
			result, err = fn(ctx, args)
			if err == nil || !retryable(err) {
				return result, err
			}

			if i < attempts-1 {
				select {
				case <-ctx.Done():
					var zero R
					return zero, ctx.Err()
				case <-time.After(m.Backoff * time.Duration(i+1)):
				}
			}
		}

		return result, err
	}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrInvalidSymbol),
		errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrNotConfigured):
		return false
	}
	return true
}
