package domain

import (
	"strings"

	dErrors "veris/pkg/domain-errors"
)

// Format contracts for identity records. The registry does not verify
// DID syntax beyond these checks and never parses credential content.
const (
	// MethodPrefix is the required DID method prefix.
	MethodPrefix = "did:stx:"

	// MaxDIDLength bounds the full DID string, prefix included.
	MaxDIDLength = 100

	// MaxCredentialLength bounds a single credential statement.
	MaxCredentialLength = 200
)

// DID is a decentralized identifier claimed by exactly one owner.
// Immutable once a record is created.
type DID string

func (d DID) String() string { return string(d) }

// ParseDID validates the DID format contract: non-empty, method prefix
// present with a non-empty method-specific id, and bounded length.
func ParseDID(s string) (DID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidDIDFormat, "did is required")
	}
	if len(s) > MaxDIDLength {
		return "", dErrors.New(dErrors.CodeInvalidDIDFormat, "did exceeds maximum length")
	}
	if !strings.HasPrefix(s, MethodPrefix) || len(s) == len(MethodPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidDIDFormat, "did must use the "+MethodPrefix+" method")
	}
	return DID(s), nil
}

// Credential is an opaque attestation attached to an identity record.
// The registry treats it as text; membership is exact string equality.
type Credential string

func (c Credential) String() string { return string(c) }

// ParseCredential validates the credential format contract.
func ParseCredential(s string) (Credential, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidCredentialFormat, "credential is required")
	}
	if len(s) > MaxCredentialLength {
		return "", dErrors.New(dErrors.CodeInvalidCredentialFormat, "credential exceeds maximum length")
	}
	return Credential(s), nil
}
