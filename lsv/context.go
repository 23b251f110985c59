package lsv

import "context"

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// WithRequestID returns a new context that pins the X-Request-Id header for
// any client call made with it.
//
// This lets callers propagate an existing correlation ID (for example from an
// inbound request they are serving) instead of the per-call UUID the client
// generates by default.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts a pinned request ID from the context.
//
// The boolean return value is false if no request ID has been attached.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
