// Package handler exposes the identity registry over HTTP. Handlers
// stay thin: decode, delegate to the service, translate errors through
// httputil. The authenticated caller and ledger height are already on
// the context by the time a handler runs.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"veris/internal/identity/metrics"
	"veris/internal/identity/models"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/httputil"
	"veris/pkg/requestcontext"
)

var tracer = otel.Tracer("veris/internal/identity/handler")

// Service defines the registry operations the transport layer needs.
type Service interface {
	CreateDID(ctx context.Context, rawDID string) error
	GetDID(ctx context.Context, owner domain.Owner) (*models.IdentityRecord, error)
	RevokeDID(ctx context.Context) error
	AddCredential(ctx context.Context, rawCredential string) error
	VerifyCredential(ctx context.Context, owner domain.Owner, credential string) (bool, error)
	DeactivateDID(ctx context.Context, reason string) error
	ReactivateDID(ctx context.Context) error
	IsDIDActive(ctx context.Context, owner domain.Owner) (bool, error)
	InitiateTransfer(ctx context.Context, newOwner domain.Owner) error
	CancelTransfer(ctx context.Context) error
	AcceptTransfer(ctx context.Context, currentOwner domain.Owner) error
	GetPendingTransfer(ctx context.Context, owner domain.Owner) (*models.PendingTransfer, error)
	IsTransferExpired(ctx context.Context, owner domain.Owner) (bool, error)
	GetTransferHistory(ctx context.Context, owner domain.Owner) ([]models.TransferHistoryEntry, error)
}

// Handler wires registry endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	auth    func(http.Handler) http.Handler
}

// New constructs an identity handler with its dependencies. auth guards
// the mutating routes; nil leaves them open for tests that inject the
// caller directly.
func New(service Service, logger *slog.Logger, m *metrics.Metrics, auth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: m,
		auth:    auth,
	}
}

// Register mounts the registry endpoints on the router. Mutations sit
// behind the auth middleware; reads are public.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.auth != nil {
				r.Use(h.auth)
			}
			r.Post("/did", h.HandleCreateDID)
			r.Delete("/did", h.HandleRevokeDID)
			r.Post("/did/credentials", h.HandleAddCredential)
			r.Post("/did/deactivate", h.HandleDeactivateDID)
			r.Post("/did/reactivate", h.HandleReactivateDID)
			r.Post("/transfers", h.HandleInitiateTransfer)
			r.Delete("/transfers", h.HandleCancelTransfer)
			r.Post("/transfers/accept", h.HandleAcceptTransfer)
		})

		r.Get("/did/{owner}", h.HandleGetDID)
		r.Get("/did/{owner}/credentials/verify", h.HandleVerifyCredential)
		r.Get("/did/{owner}/active", h.HandleIsDIDActive)
		r.Get("/transfers/{owner}", h.HandleGetPendingTransfer)
		r.Get("/transfers/{owner}/history", h.HandleGetTransferHistory)
	})
}

// start opens a span and returns the deferred finish hook. The hook
// records the outcome and observes the operation latency.
func (h *Handler) start(ctx context.Context, operation string) (context.Context, trace.Span, func(err error)) {
	ctx, span := tracer.Start(ctx, "identity."+operation)
	began := time.Now()
	finish := func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if h.metrics != nil {
			h.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(began).Seconds())
		}
	}
	return ctx, span, finish
}

// requireCaller rejects requests the auth middleware let through
// without a principal. Should not happen on a correctly mounted router.
func (h *Handler) requireCaller(ctx context.Context, w http.ResponseWriter, requestID string) (domain.Owner, bool) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return caller, true
}

// ownerParam parses the {owner} path segment.
func ownerParam(w http.ResponseWriter, r *http.Request) (domain.Owner, bool) {
	owner, err := domain.ParseOwner(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return owner, true
}

// HandleCreateDID handles POST /v1/did requests.
func (h *Handler) HandleCreateDID(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "create_did")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	req, ok := httputil.DecodeAndPrepare[CreateDIDRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		finish(nil)
		return
	}

	if err := h.service.CreateDID(ctx, req.DID); err != nil {
		h.logger.WarnContext(ctx, "create did failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusCreated)
}

// HandleGetDID handles GET /v1/did/{owner} requests. Public read; a
// missing record reads as a null body field, never an error.
func (h *Handler) HandleGetDID(w http.ResponseWriter, r *http.Request) {
	ctx, _, finish := h.start(r.Context(), "get_did")

	owner, ok := ownerParam(w, r)
	if !ok {
		finish(nil)
		return
	}

	rec, err := h.service.GetDID(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	httputil.WriteJSON(w, http.StatusOK, RecordResponse{Record: rec})
}

// HandleRevokeDID handles DELETE /v1/did requests.
func (h *Handler) HandleRevokeDID(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "revoke_did")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	if err := h.service.RevokeDID(ctx); err != nil {
		h.logger.WarnContext(ctx, "revoke did failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddCredential handles POST /v1/did/credentials requests.
func (h *Handler) HandleAddCredential(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "add_credential")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	req, ok := httputil.DecodeAndPrepare[AddCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		finish(nil)
		return
	}

	if err := h.service.AddCredential(ctx, req.Credential); err != nil {
		h.logger.WarnContext(ctx, "add credential failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyCredential handles GET /v1/did/{owner}/credentials/verify
// requests. Public read; absence and deactivation both read as false.
func (h *Handler) HandleVerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx, _, finish := h.start(r.Context(), "verify_credential")

	owner, ok := ownerParam(w, r)
	if !ok {
		finish(nil)
		return
	}

	verified, err := h.service.VerifyCredential(ctx, owner, r.URL.Query().Get("credential"))
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{Verified: verified})
}

// HandleDeactivateDID handles POST /v1/did/deactivate requests.
func (h *Handler) HandleDeactivateDID(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "deactivate_did")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	req, ok := httputil.DecodeAndPrepare[DeactivateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		finish(nil)
		return
	}

	if err := h.service.DeactivateDID(ctx, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "deactivate did failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleReactivateDID handles POST /v1/did/reactivate requests.
func (h *Handler) HandleReactivateDID(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "reactivate_did")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	if err := h.service.ReactivateDID(ctx); err != nil {
		h.logger.WarnContext(ctx, "reactivate did failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleIsDIDActive handles GET /v1/did/{owner}/active requests.
func (h *Handler) HandleIsDIDActive(w http.ResponseWriter, r *http.Request) {
	ctx, _, finish := h.start(r.Context(), "is_did_active")

	owner, ok := ownerParam(w, r)
	if !ok {
		finish(nil)
		return
	}

	active, err := h.service.IsDIDActive(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	httputil.WriteJSON(w, http.StatusOK, ActiveResponse{Active: active})
}

// HandleInitiateTransfer handles POST /v1/transfers requests.
func (h *Handler) HandleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "initiate_transfer")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}

	req, ok := httputil.DecodeAndPrepare[InitiateTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(
		attribute.String("owner", caller.String()),
		attribute.String("new_owner", req.NewOwner),
	)

	if err := h.service.InitiateTransfer(ctx, req.ParsedNewOwner()); err != nil {
		h.logger.WarnContext(ctx, "initiate transfer failed",
			"request_id", requestID,
			"owner", caller,
			"new_owner", req.NewOwner,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusCreated)
}

// HandleCancelTransfer handles DELETE /v1/transfers requests.
func (h *Handler) HandleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "cancel_transfer")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(attribute.String("owner", caller.String()))

	if err := h.service.CancelTransfer(ctx); err != nil {
		h.logger.WarnContext(ctx, "cancel transfer failed",
			"request_id", requestID,
			"owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleAcceptTransfer handles POST /v1/transfers/accept requests.
func (h *Handler) HandleAcceptTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span, finish := h.start(r.Context(), "accept_transfer")
	requestID := requestcontext.RequestID(ctx)

	caller, ok := h.requireCaller(ctx, w, requestID)
	if !ok {
		finish(nil)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AcceptTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		finish(nil)
		return
	}
	span.SetAttributes(
		attribute.String("owner", req.CurrentOwner),
		attribute.String("new_owner", caller.String()),
	)

	if err := h.service.AcceptTransfer(ctx, req.ParsedCurrentOwner()); err != nil {
		h.logger.WarnContext(ctx, "accept transfer failed",
			"request_id", requestID,
			"owner", req.CurrentOwner,
			"new_owner", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetPendingTransfer handles GET /v1/transfers/{owner} requests.
// Public read; a missing entry reads as a null body field.
func (h *Handler) HandleGetPendingTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, _, finish := h.start(r.Context(), "get_pending_transfer")

	owner, ok := ownerParam(w, r)
	if !ok {
		finish(nil)
		return
	}

	pt, err := h.service.GetPendingTransfer(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}
	expired, err := h.service.IsTransferExpired(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}

	finish(nil)
	httputil.WriteJSON(w, http.StatusOK, PendingTransferResponse{Transfer: pt, Expired: expired})
}

// HandleGetTransferHistory handles GET /v1/transfers/{owner}/history
// requests.
func (h *Handler) HandleGetTransferHistory(w http.ResponseWriter, r *http.Request) {
	ctx, _, finish := h.start(r.Context(), "get_transfer_history")

	owner, ok := ownerParam(w, r)
	if !ok {
		finish(nil)
		return
	}

	entries, err := h.service.GetTransferHistory(ctx, owner)
	if err != nil {
		httputil.WriteError(w, err)
		finish(err)
		return
	}
	if entries == nil {
		entries = []models.TransferHistoryEntry{}
	}

	finish(nil)
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{History: entries})
}
