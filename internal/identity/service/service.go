// Package service implements the identity registry state machine:
// DID claims, the bounded credential vault, lifecycle transitions, and
// the two-step ownership transfer with its bounded history log.
//
// Every mutating method runs inside the injected Atomic runner and
// validates all preconditions before touching any store, so a failure
// leaves zero observable state change. The authenticated caller and
// the logical height arrive on the context; the service never derives
// either itself.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"veris/internal/audit"
	identitymetrics "veris/internal/identity/metrics"
	"veris/internal/identity/models"
	"veris/pkg/attrs"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// IdentityStore persists identity records keyed by owner.
type IdentityStore interface {
	Get(ctx context.Context, owner domain.Owner) (*models.IdentityRecord, error)
	Create(ctx context.Context, owner domain.Owner, rec *models.IdentityRecord) error
	Put(ctx context.Context, owner domain.Owner, rec *models.IdentityRecord) error
	Delete(ctx context.Context, owner domain.Owner) error
}

// TransferStore persists pending transfers keyed by the current owner.
type TransferStore interface {
	Get(ctx context.Context, owner domain.Owner) (*models.PendingTransfer, error)
	Create(ctx context.Context, owner domain.Owner, pt *models.PendingTransfer) error
	Delete(ctx context.Context, owner domain.Owner) error
}

// HistoryStore persists bounded per-owner transfer logs.
type HistoryStore interface {
	Get(ctx context.Context, owner domain.Owner) ([]models.TransferHistoryEntry, error)
	Append(ctx context.Context, owner domain.Owner, entry models.TransferHistoryEntry) error
	Delete(ctx context.Context, owner domain.Owner) error
}

// Atomic executes fn as one all-or-nothing unit across the stores.
type Atomic interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates the registry. One instance serves all owners.
type Service struct {
	identities IdentityStore
	transfers  TransferStore
	history    HistoryStore
	atomic     Atomic

	logger        *slog.Logger
	metrics       *identitymetrics.Metrics
	audit         audit.Publisher
	cascadeRevoke bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher attaches an audit sink.
func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithCascadeRevoke makes revoke_did also discard the owner's pending
// transfer and history. Off by default: the compatible behavior leaves
// that side-state in place, and a later create_did by the same owner
// inherits it.
func WithCascadeRevoke(cascade bool) Option {
	return func(s *Service) {
		s.cascadeRevoke = cascade
	}
}

// New constructs a Service.
func New(identities IdentityStore, transfers TransferStore, history HistoryStore, atomic Atomic, opts ...Option) (*Service, error) {
	if identities == nil || transfers == nil || history == nil {
		return nil, fmt.Errorf("identity, transfer, and history stores are required")
	}
	if atomic == nil {
		return nil, fmt.Errorf("atomic runner is required")
	}

	s := &Service{
		identities: identities,
		transfers:  transfers,
		history:    history,
		atomic:     atomic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// caller extracts the authenticated principal injected by middleware.
func (s *Service) caller(ctx context.Context) (domain.Owner, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	return caller, nil
}

// height extracts the logical height injected by middleware.
func (s *Service) height(ctx context.Context) (uint64, error) {
	height, ok := requestcontext.Height(ctx)
	if !ok {
		return 0, dErrors.New(dErrors.CodeInternal, "ledger height missing from context")
	}
	return height, nil
}

func (s *Service) logAudit(ctx context.Context, action string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", action, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, action, args...)
	}
	if s.audit == nil {
		return
	}
	height, _ := requestcontext.Height(ctx)
	err := s.audit.Emit(ctx, audit.Event{
		Action:  action,
		Owner:   domain.Owner(attrs.ExtractString(attributes, "owner")),
		Subject: domain.Owner(attrs.ExtractString(attributes, "subject")),
		Height:  height,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", action, "error", err)
	}
}
