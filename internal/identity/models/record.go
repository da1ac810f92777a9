package models

import (
	"slices"

	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// Capacity limits for the bounded sequences attached to an owner.
// Appends past capacity are rejected, never truncated or rotated.
const (
	MaxCredentials     = 10
	MaxTransferHistory = 10
)

// MaxRevocationReasonLength bounds the optional deactivation note.
const MaxRevocationReasonLength = 200

// IdentityRecord is the aggregate owned by exactly one Owner.
//
// Invariants:
//   - DID is format-valid and immutable after creation
//   - Credentials holds at most MaxCredentials entries, append-only,
//     insertion order preserved, entries immutable once stored
//   - CreatedAt is immutable; UpdatedAt refreshes on every mutation
//   - RevocationReason is set only while inactive and cleared on
//     reactivation
type IdentityRecord struct {
	DID              domain.DID          `json:"did"`
	Credentials      []domain.Credential `json:"credentials"`
	CreatedAt        uint64              `json:"created_at"`
	UpdatedAt        uint64              `json:"updated_at"`
	Active           bool                `json:"is_active"`
	RevocationReason string              `json:"revocation_reason,omitempty"`
}

// NewIdentityRecord constructs a fresh active record at the given height.
func NewIdentityRecord(did domain.DID, height uint64) *IdentityRecord {
	return &IdentityRecord{
		DID:         did,
		Credentials: []domain.Credential{},
		CreatedAt:   height,
		UpdatedAt:   height,
		Active:      true,
	}
}

// Clone returns a deep copy so store reads never alias live state.
func (r *IdentityRecord) Clone() *IdentityRecord {
	cp := *r
	cp.Credentials = slices.Clone(r.Credentials)
	return &cp
}

// CanAddCredential checks the vault preconditions without mutating.
func (r *IdentityRecord) CanAddCredential() error {
	if !r.Active {
		return dErrors.New(dErrors.CodeDeactivated, "identity is deactivated")
	}
	if len(r.Credentials) >= MaxCredentials {
		return dErrors.New(dErrors.CodeMaxCredentials, "credential list is at capacity")
	}
	return nil
}

// ApplyCredential appends a credential. Call CanAddCredential first.
func (r *IdentityRecord) ApplyCredential(c domain.Credential, height uint64) {
	r.Credentials = append(r.Credentials, c)
	r.UpdatedAt = height
}

// HasCredential reports exact-string membership. This is a lookup, not
// cryptographic verification.
func (r *IdentityRecord) HasCredential(c domain.Credential) bool {
	return slices.Contains(r.Credentials, c)
}

// CanDeactivate checks the lifecycle precondition without mutating.
func (r *IdentityRecord) CanDeactivate() error {
	if !r.Active {
		return dErrors.New(dErrors.CodeAlreadyDeactivated, "identity is already deactivated")
	}
	return nil
}

// ApplyDeactivation flips the record inactive and stores the reason.
// Call CanDeactivate first.
func (r *IdentityRecord) ApplyDeactivation(reason string, height uint64) {
	r.Active = false
	r.RevocationReason = reason
	r.UpdatedAt = height
}

// CanReactivate checks the lifecycle precondition without mutating.
// An already-active record reports ALREADY_DEACTIVATED: the code has
// always meant "already in the target state" on this path and stays
// that way for compatibility.
func (r *IdentityRecord) CanReactivate() error {
	if r.Active {
		return dErrors.New(dErrors.CodeAlreadyDeactivated, "identity is already active")
	}
	return nil
}

// ApplyReactivation flips the record active and clears the reason.
// Call CanReactivate first.
func (r *IdentityRecord) ApplyReactivation(height uint64) {
	r.Active = true
	r.RevocationReason = ""
	r.UpdatedAt = height
}
