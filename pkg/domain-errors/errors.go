// Package domainerrors provides the coded error type used across the
// registry. Every precondition failure maps to exactly one stable code;
// the transport layer translates codes to HTTP statuses and callers can
// branch on codes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a distinct failure kind. Codes are part of the public
// contract and must stay stable across releases.
type Code string

// Registry failure taxonomy.
const (
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeAlreadyExists           Code = "ALREADY_EXISTS"
	CodeNotFound                Code = "NOT_FOUND"
	CodeMaxCredentials          Code = "MAX_CREDENTIALS"
	CodeAlreadyDeactivated      Code = "ALREADY_DEACTIVATED"
	CodeDeactivated             Code = "DEACTIVATED"
	CodeTransferInProgress      Code = "TRANSFER_IN_PROGRESS"
	CodeNoPendingTransfer       Code = "NO_PENDING_TRANSFER"
	CodeTransferExpired         Code = "TRANSFER_EXPIRED"
	CodeSelfTransfer            Code = "SELF_TRANSFER"
	CodeHistoryFull             Code = "HISTORY_FULL"
	CodeInvalidDIDFormat        Code = "INVALID_DID_FORMAT"
	CodeInvalidCredentialFormat Code = "INVALID_CREDENTIAL_FORMAT"
)

// Infrastructure codes. Never returned by the core state machine for a
// spec-level precondition; used by transports and wrapping layers.
const (
	CodeBadRequest Code = "BAD_REQUEST"
	CodeInternal   Code = "INTERNAL"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is makes two coded errors equivalent under errors.Is when they carry
// the same code and message.
func (e *Error) Is(target error) bool {
	var de *Error
	if !errors.As(target, &de) {
		return false
	}
	return e.code == de.code && e.msg == de.msg
}

// Code returns the failure kind.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the code prefix.
func (e *Error) Message() string { return e.msg }

// New constructs a coded error.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, err: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is reports whether err carries the given code. Alias of HasCode kept
// for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so transports never leak raw failure details.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
