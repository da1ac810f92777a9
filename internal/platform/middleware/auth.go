// Package middleware assembles the request pipeline: recovery, request
// IDs, logging, the ledger height stamp, and caller authentication.
// Handlers downstream read everything through pkg/requestcontext.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/requestcontext"
)

// Claims represents the claims we expect from the JWT validator.
type Claims struct {
	Owner string
	JTI   string
}

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireAuth authenticates the bearer token and injects the caller
// into the request context. Requests without a valid token never reach
// the handler.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			owner, err := domain.ParseOwner(claims.Owner)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed principal",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, owner)))
		})
	}
}
