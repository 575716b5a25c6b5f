package middleware

import (
	"context"
	"time"

	"finassist/pkg/errors"
)

// TimeoutMiddleware enforces per-call deadlines for tool execution.
type TimeoutMiddleware struct {
	Timeout time.Duration
}

// Timeout runs fn under a deadline when one is configured. An expired
// deadline is reported as ErrTimeout so the model sees a clear failure.
func Timeout[A, R any](m TimeoutMiddleware, name string, fn Func[A, R]) Func[A, R] {
	if m.Timeout <= 0 {
		return fn
	}

	return func(ctx context.Context, args A) (R, error) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, m.Timeout)
		defer cancel()

		result, err := fn(ctxWithTimeout, args)
		if err != nil && ctx.Err() == nil && errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return result, errors.Wrapf(errors.ErrTimeout, "%s exceeded %s", name, m.Timeout)
		}
		return result, err
	}
}
