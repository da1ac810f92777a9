package service

import (
	"context"
	"errors"

	"veris/internal/audit"
	"veris/internal/identity/models"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/sentinel"
	"veris/pkg/requestcontext"
)

// InitiateTransfer opens the two-step handshake moving the caller's
// identity to newOwner. The offer stays acceptable for
// models.TransferWindow height units.
func (s *Service) InitiateTransfer(ctx context.Context, newOwner domain.Owner) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	height, err := s.height(ctx)
	if err != nil {
		return err
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.identities.Get(ctx, caller)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
		}
		if !rec.Active {
			return dErrors.New(dErrors.CodeDeactivated, "identity is deactivated")
		}

		if _, err := s.transfers.Get(ctx, caller); err == nil {
			return dErrors.New(dErrors.CodeTransferInProgress, "a transfer is already pending")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pending transfer")
		}

		if newOwner == caller {
			return dErrors.New(dErrors.CodeSelfTransfer, "cannot transfer identity to self")
		}

		// Cross-owner check: the target must not hold a record.
		if _, err := s.identities.Get(ctx, newOwner); err == nil {
			return dErrors.New(dErrors.CodeAlreadyExists, "target owner already holds an identity")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check target identity")
		}

		pt := models.NewPendingTransfer(newOwner, height)
		if err := s.transfers.Create(ctx, caller, pt); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeTransferInProgress, "a transfer is already pending")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record pending transfer")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventTransferInitiated, "owner", caller.String(), "subject", newOwner.String())
	if s.metrics != nil {
		s.metrics.TransfersInitiated.Inc()
	}
	return nil
}

// CancelTransfer withdraws the caller's pending transfer. Cancelling is
// also how an expired entry gets cleared.
func (s *Service) CancelTransfer(ctx context.Context) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.transfers.Delete(ctx, caller); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNoPendingTransfer, "no pending transfer to cancel")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel pending transfer")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventTransferCancelled, "owner", caller.String())
	if s.metrics != nil {
		s.metrics.TransfersCancelled.Inc()
	}
	return nil
}

// AcceptTransfer completes the handshake: the caller must be the named
// recipient of currentOwner's pending transfer. On success the record
// moves under the caller's key, a history entry is appended for the
// caller, and the old record and the pending entry are removed, all
// three or none.
//
// An expired transfer fails but stays stored: expiry is a read-time
// check, and only a cancel clears the entry.
func (s *Service) AcceptTransfer(ctx context.Context, currentOwner domain.Owner) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	height, err := s.height(ctx)
	if err != nil {
		return err
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		pt, err := s.transfers.Get(ctx, currentOwner)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no pending transfer for owner")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending transfer")
		}

		rec, err := s.identities.Get(ctx, currentOwner)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
		}

		if caller != pt.NewOwner {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the transfer recipient")
		}
		if !rec.Active {
			return dErrors.New(dErrors.CodeDeactivated, "identity is deactivated")
		}
		if pt.Expired(height) {
			return dErrors.New(dErrors.CodeTransferExpired, "transfer window elapsed")
		}

		// Capacity check precedes every write so a full history log
		// aborts the transfer with nothing moved.
		entries, err := s.history.Get(ctx, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer history")
		}
		if len(entries) >= models.MaxTransferHistory {
			return dErrors.New(dErrors.CodeHistoryFull, "transfer history is at capacity")
		}

		rec.UpdatedAt = height
		if err := s.identities.Put(ctx, caller, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to move identity")
		}
		entry := models.TransferHistoryEntry{From: currentOwner, To: caller, Timestamp: height}
		if err := s.history.Append(ctx, caller, entry); err != nil {
			if errors.Is(err, sentinel.ErrCapacity) {
				return dErrors.New(dErrors.CodeHistoryFull, "transfer history is at capacity")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append transfer history")
		}
		if err := s.identities.Delete(ctx, currentOwner); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove old identity")
		}
		if err := s.transfers.Delete(ctx, currentOwner); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove pending transfer")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventTransferAccepted, "owner", currentOwner.String(), "subject", caller.String())
	if s.metrics != nil {
		s.metrics.TransfersAccepted.Inc()
	}
	return nil
}

// GetPendingTransfer is a public read. A missing entry yields
// (nil, nil), never an error.
func (s *Service) GetPendingTransfer(ctx context.Context, owner domain.Owner) (*models.PendingTransfer, error) {
	pt, err := s.transfers.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending transfer")
	}
	return pt, nil
}

// IsTransferExpired reports whether owner's pending transfer has passed
// its window at the current height. False when none exists.
func (s *Service) IsTransferExpired(ctx context.Context, owner domain.Owner) (bool, error) {
	pt, err := s.GetPendingTransfer(ctx, owner)
	if err != nil || pt == nil {
		return false, err
	}
	height, ok := requestcontext.Height(ctx)
	if !ok {
		return false, nil
	}
	return pt.Expired(height), nil
}

// GetTransferHistory returns owner's completed-transfer log in
// insertion order, empty if none.
func (s *Service) GetTransferHistory(ctx context.Context, owner domain.Owner) ([]models.TransferHistoryEntry, error) {
	entries, err := s.history.Get(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer history")
	}
	return entries, nil
}
