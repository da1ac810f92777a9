package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about stored records, not precondition
// violations:
// - ErrNotFound: no record under the key
// - ErrConflict: a record already exists under the key
// - ErrCapacity: a bounded sequence is already at capacity
// - ErrUnavailable: backing store temporarily unreachable
//
// For precondition violations (format, lifecycle, transfer rules), use
// pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrCapacity    = errors.New("capacity exceeded")
	ErrUnavailable = errors.New("unavailable")
)
