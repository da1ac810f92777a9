// Package domain defines the value types shared across the registry:
// owners, DIDs, and credential statements. Parsing happens at trust
// boundaries (HTTP, middleware); services and stores only see values
// that already satisfy the format contracts.
package domain

import (
	"strings"

	dErrors "veris/pkg/domain-errors"
)

// MaxOwnerLength bounds the ledger principal representation. Principals
// are opaque to the registry; we only refuse obviously broken values.
const MaxOwnerLength = 128

// Owner is the ledger-authenticated principal that keys every store.
// An Owner holds at most one identity record at a time.
type Owner string

func (o Owner) String() string { return string(o) }

// IsZero reports whether the owner is unset. A zero Owner never appears
// in a store; it only occurs when no caller was injected into a context.
func (o Owner) IsZero() bool { return o == "" }

// ParseOwner validates an externally supplied principal string.
func ParseOwner(s string) (Owner, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "owner is required")
	}
	if len(s) > MaxOwnerLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "owner exceeds maximum length")
	}
	return Owner(s), nil
}
