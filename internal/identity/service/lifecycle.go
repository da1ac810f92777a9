package service

import (
	"context"
	"errors"

	"veris/internal/audit"
	"veris/internal/identity/models"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/sentinel"
)

// DeactivateDID flips the caller's record inactive with an optional
// reason. Deactivation blocks every identity mutation except
// reactivation and revocation.
func (s *Service) DeactivateDID(ctx context.Context, reason string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	height, err := s.height(ctx)
	if err != nil {
		return err
	}
	if len(reason) > models.MaxRevocationReasonLength {
		return dErrors.New(dErrors.CodeBadRequest, "reason exceeds maximum length")
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		rec, err := s.identities.Get(ctx, caller)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
		}

		if err := rec.CanDeactivate(); err != nil {
			return err
		}
		rec.ApplyDeactivation(reason, height)

		if err := s.identities.Put(ctx, caller, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate identity")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventDIDDeactivated, "owner", caller.String(), "reason", reason)
	if s.metrics != nil {
		s.metrics.Deactivations.Inc()
	}
	return nil
}

// ReactivateDID flips the caller's record back to active and clears
// the stored reason.
func (s *Service) ReactivateDID(ctx context.Context) error {
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

		if err := rec.CanReactivate(); err != nil {
			return err
		}
		rec.ApplyReactivation(height)

		if err := s.identities.Put(ctx, caller, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reactivate identity")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventDIDReactivated, "owner", caller.String())
	if s.metrics != nil {
		s.metrics.Reactivations.Inc()
	}
	return nil
}

// IsDIDActive reports whether owner holds an active record. Missing
// records read as inactive, never as an error.
func (s *Service) IsDIDActive(ctx context.Context, owner domain.Owner) (bool, error) {
	rec, err := s.identities.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return rec.Active, nil
}
