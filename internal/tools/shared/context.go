package shared

import "context"

type contextKey struct{}

// InvocationMetadata captures request-scoped identifiers for tool telemetry.
type InvocationMetadata struct {
	Agent     string
	SessionID string
	CallID    string
}

// WithInvocationMetadata injects tool invocation metadata into a context.
func WithInvocationMetadata(ctx context.Context, meta InvocationMetadata) context.Context {
	return context.WithValue(ctx, contextKey{}, meta)
}

// MetadataFromContext extracts invocation metadata if present.
func MetadataFromContext(ctx context.Context) (InvocationMetadata, bool) {
	meta, ok := ctx.Value(contextKey{}).(InvocationMetadata)
	return meta, ok
}

func logFields(ctx context.Context) []interface{} {
	meta, ok := MetadataFromContext(ctx)
	if !ok {
		return nil
	}
	return []interface{}{"agent", meta.Agent, "session_id", meta.SessionID, "call_id", meta.CallID}
}
