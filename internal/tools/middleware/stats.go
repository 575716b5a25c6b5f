package middleware

import (
	"context"
	"time"

	"finassist/internal/metrics"
	"finassist/pkg/logger"
)

// FieldsFunc extracts request-scoped log fields from a context.
type FieldsFunc func(ctx context.Context) []interface{}

// StatsMiddleware records tool usage metrics and a log line per call.
type StatsMiddleware struct {
	Log    *logger.Logger
	Fields FieldsFunc
}

// Stats measures fn, including any retries wrapped inside it.
func Stats[A, R any](m StatsMiddleware, name string, fn Func[A, R]) Func[A, R] {
	log := m.Log
	if log == nil {
		log = logger.Get()
	}
	log = log.With("tool", name)

	return func(ctx context.Context, args A) (R, error) {
		start := time.Now()
		result, err := fn(ctx, args)
		duration := time.Since(start)

		metrics.RecordToolExecution(name, duration, err)

		fields := []interface{}{"duration_ms", duration.Milliseconds()}
		if m.Fields != nil {
			fields = append(fields, m.Fields(ctx)...)
		}
		if err != nil {
			log.Warnw("Tool failed", append(fields, "error", err)...)
		} else {
			log.Debugw("Tool completed", fields...)
		}

		return result, err
	}
}
