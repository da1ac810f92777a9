package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"veris/pkg/requestcontext"
)

// RequestIDHeader carries the request ID on responses and, when a
// trusted proxy supplies one, on requests.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
