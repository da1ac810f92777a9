package handler

import (
	"strings"

	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// CreateDIDRequest is the HTTP request body for POST /v1/did.
type CreateDIDRequest struct {
	DID string `json:"did"`
}

// Validate trims the raw value; format rules are enforced by the
// service so the error ordering there stays authoritative.
func (r *CreateDIDRequest) Validate() error {
	r.DID = strings.TrimSpace(r.DID)
	return nil
}

// AddCredentialRequest is the HTTP request body for POST /v1/did/credentials.
type AddCredentialRequest struct {
	Credential string `json:"credential"`
}

// DeactivateRequest is the HTTP request body for POST /v1/did/deactivate.
type DeactivateRequest struct {
	Reason string `json:"reason"`
}

// InitiateTransferRequest is the HTTP request body for POST /v1/transfers.
type InitiateTransferRequest struct {
	NewOwner string `json:"new_owner"`

	parsedNewOwner domain.Owner
}

func (r *InitiateTransferRequest) Validate() error {
	r.NewOwner = strings.TrimSpace(r.NewOwner)
	if r.NewOwner == "" {
		return dErrors.New(dErrors.CodeBadRequest, "new_owner is required")
	}
	owner, err := domain.ParseOwner(r.NewOwner)
	if err != nil {
		return err
	}
	r.parsedNewOwner = owner
	return nil
}

// ParsedNewOwner returns the validated recipient.
func (r *InitiateTransferRequest) ParsedNewOwner() domain.Owner {
	return r.parsedNewOwner
}

// AcceptTransferRequest is the HTTP request body for POST /v1/transfers/accept.
type AcceptTransferRequest struct {
	CurrentOwner string `json:"current_owner"`

	parsedCurrentOwner domain.Owner
}

func (r *AcceptTransferRequest) Validate() error {
	r.CurrentOwner = strings.TrimSpace(r.CurrentOwner)
	if r.CurrentOwner == "" {
		return dErrors.New(dErrors.CodeBadRequest, "current_owner is required")
	}
	owner, err := domain.ParseOwner(r.CurrentOwner)
	if err != nil {
		return err
	}
	r.parsedCurrentOwner = owner
	return nil
}

// ParsedCurrentOwner returns the validated transferring owner.
func (r *AcceptTransferRequest) ParsedCurrentOwner() domain.Owner {
	return r.parsedCurrentOwner
}
