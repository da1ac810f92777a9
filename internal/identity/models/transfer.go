package models

import "veris/pkg/domain"

// TransferWindow is the number of height units an initiated transfer
// stays acceptable. Expiry is evaluated lazily at read or accept time;
// nothing sweeps expired entries.
const TransferWindow = 144

// PendingTransfer is the in-flight half of the two-step ownership
// handshake, keyed by the current owner. At most one exists per owner.
//
// Invariants:
//   - NewOwner differs from the keying owner
//   - NewOwner holds no identity record at initiation time
//   - ExpiresAt = InitiatedAt + TransferWindow
type PendingTransfer struct {
	NewOwner    domain.Owner `json:"new_owner"`
	InitiatedAt uint64       `json:"initiated_at"`
	ExpiresAt   uint64       `json:"expires_at"`
}

// NewPendingTransfer opens the handshake window at the given height.
func NewPendingTransfer(newOwner domain.Owner, height uint64) *PendingTransfer {
	return &PendingTransfer{
		NewOwner:    newOwner,
		InitiatedAt: height,
		ExpiresAt:   height + TransferWindow,
	}
}

// Expired reports whether the window has elapsed at the given height.
// An expired entry stays in the store until explicitly cancelled.
func (p *PendingTransfer) Expired(height uint64) bool {
	return height > p.ExpiresAt
}

// TransferHistoryEntry records one completed ownership transfer. The
// recipient accumulates entries across however many identities they
// acquire; the sequence is bounded at MaxTransferHistory.
type TransferHistoryEntry struct {
	From      domain.Owner `json:"from"`
	To        domain.Owner `json:"to"`
	Timestamp uint64       `json:"timestamp"`
}
