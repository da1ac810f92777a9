// Package httputil centralizes JSON response writing and the mapping
// from domain error codes to HTTP statuses so handlers stay thin.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "veris/pkg/domain-errors"
)

// errorBody is the wire shape for every failed request.
type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status. Encoding failures are
// unrecoverable at this point; the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into an HTTP response.
// Internal errors omit the description so store details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message()
		}
	}
	WriteJSON(w, statusFor(code), body)
}

// Validatable lets request types hook field validation into
// DecodeAndPrepare.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes a JSON request body into T and runs its
// Validate hook when present, writing an error response and logging on
// failure. The bool reports whether the handler should continue.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "invalid request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			if logger != nil {
				logger.WarnContext(ctx, "request validation failed",
					"request_id", requestID,
					"error", err,
				)
			}
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound, dErrors.CodeNoPendingTransfer:
		return http.StatusNotFound
	case dErrors.CodeAlreadyExists,
		dErrors.CodeAlreadyDeactivated,
		dErrors.CodeDeactivated,
		dErrors.CodeTransferInProgress,
		dErrors.CodeMaxCredentials,
		dErrors.CodeHistoryFull:
		return http.StatusConflict
	case dErrors.CodeTransferExpired:
		return http.StatusGone
	case dErrors.CodeSelfTransfer,
		dErrors.CodeInvalidDIDFormat,
		dErrors.CodeInvalidCredentialFormat,
		dErrors.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
