// Package middleware wraps typed tool handlers with retry, timeout and
// telemetry concerns.
package middleware

import "context"

// Func is a typed tool handler.
type Func[A, R any] func(ctx context.Context, args A) (R, error)
