package testutil

import (
	"context"
	"net/http"

	"veris/pkg/domain"
	"veris/pkg/requestcontext"
)

// WithCaller adds an authenticated caller to the request context. This
// simulates what the auth middleware would do for authenticated
// requests.
func WithCaller(req *http.Request, owner domain.Owner) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), owner)
	return req.WithContext(ctx)
}

// WithHeight stamps the request with a ledger height, the way the
// height middleware would.
func WithHeight(req *http.Request, height uint64) *http.Request {
	ctx := requestcontext.WithHeight(req.Context(), height)
	return req.WithContext(ctx)
}

// WithLedgerContext adds both caller and height, the typical state for
// an authenticated mutation.
func WithLedgerContext(req *http.Request, owner domain.Owner, height uint64) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), owner)
	ctx = requestcontext.WithHeight(ctx, height)
	return req.WithContext(ctx)
}

// Context builds a bare context carrying caller and height for service
// level tests.
func Context(owner domain.Owner, height uint64) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), owner)
	return requestcontext.WithHeight(ctx, height)
}
