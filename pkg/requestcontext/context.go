// Package requestcontext provides HTTP-independent context accessors for
// the two values the ledger environment injects into every operation: the
// authenticated caller and the current logical height. Middleware sets
// them; services only read them and never re-derive either value.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	height := requestcontext.Height(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCaller(ctx, owner)
//	ctx = requestcontext.WithHeight(ctx, height)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithCaller(ctx, domain.Owner("alice"))
//	ctx = requestcontext.WithHeight(ctx, 42)
package requestcontext

import (
	"context"

	"veris/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey    struct{}
	heightKey    struct{}
	requestIDKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyCaller    = callerKey{}
	ContextKeyHeight    = heightKey{}
	ContextKeyRequestID = requestIDKey{}
)

// Caller retrieves the authenticated principal from the context.
// Returns the zero Owner if no caller was injected.
func Caller(ctx context.Context) domain.Owner {
	if owner, ok := ctx.Value(ContextKeyCaller).(domain.Owner); ok {
		return owner
	}
	return ""
}

// WithCaller injects an authenticated principal into the context.
func WithCaller(ctx context.Context, owner domain.Owner) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, owner)
}

// Height retrieves the logical height from the context. The boolean is
// false when no ledger middleware stamped a height.
func Height(ctx context.Context) (uint64, bool) {
	if h, ok := ctx.Value(ContextKeyHeight).(uint64); ok {
		return h, true
	}
	return 0, false
}

// WithHeight injects a logical height into the context.
func WithHeight(ctx context.Context, height uint64) context.Context {
	return context.WithValue(ctx, ContextKeyHeight, height)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
