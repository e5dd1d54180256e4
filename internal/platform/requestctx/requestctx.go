// Package requestctx provides HTTP-independent context accessors for
// request-scoped values. Values are set by the transport layer and consumed
// by services; keeping the package free of net/http lets services import
// only what they need.
package requestctx

import "context"

type (
	sessionIDKey struct{}
	requestIDKey struct{}
	userIDKey    struct{}
)

// WithSessionID records the gateway session ID on the context.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sid)
}

// SessionID returns the gateway session ID, or "" when absent.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey{}).(string)
	return sid
}

// WithRequestID records the request correlation ID on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithUserID records the authenticated user ID on the context.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated user ID, or 0 when absent.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey{}).(int64)
	return id
}
