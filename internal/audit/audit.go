// Package audit captures registry events for compliance sinks. Emission
// is best-effort: a failed emit is logged and never fails the operation
// that produced it, since the event sits outside the atomic commit.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"veris/pkg/domain"
)

// Action names for registry events.
const (
	EventDIDCreated        = "did_created"
	EventDIDRevoked        = "did_revoked"
	EventDIDDeactivated    = "did_deactivated"
	EventDIDReactivated    = "did_reactivated"
	EventCredentialAdded   = "credential_added"
	EventTransferInitiated = "transfer_initiated"
	EventTransferCancelled = "transfer_cancelled"
	EventTransferAccepted  = "transfer_accepted"
)

// Event is emitted from the identity service on every committed
// mutation. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	ID        uuid.UUID    `json:"id"`
	Action    string       `json:"action"`
	Owner     domain.Owner `json:"owner"`
	Subject   domain.Owner `json:"subject,omitempty"`
	Height    uint64       `json:"height"`
	Timestamp time.Time    `json:"timestamp"`
}

//go:generate mockgen -source=audit.go -destination=mocks/publisher_mock.go -package=mocks

// Publisher delivers events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// stamp fills the fields every sink needs populated.
func stamp(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
