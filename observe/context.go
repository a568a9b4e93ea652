package observe

import "context"

type correlationIDKey struct{}

// SetCorrelationID returns a context carrying the given correlation ID.
// Consumers lift the ID from message headers so log lines across services
// chain together.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation ID carried by ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
