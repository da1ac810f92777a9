package middleware

import (
	"log/slog"
	"net/http"

	"veris/internal/ledger"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/requestcontext"
)

// Height stamps every request with a ledger height. Mutating methods
// advance the clock so each write lands at a distinct height; reads
// observe the current value without advancing.
func Height(source ledger.HeightSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var (
				height uint64
				err    error
			)
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				height, err = source.Current(ctx)
			default:
				height, err = source.Next(ctx)
			}
			if err != nil {
				logger.ErrorContext(ctx, "height source unavailable",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "ledger height unavailable"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithHeight(ctx, height)))
		})
	}
}
