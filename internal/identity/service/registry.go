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

// CreateDID claims a DID for the caller. Each owner holds at most one
// identity record; the claim is refused while one exists.
func (s *Service) CreateDID(ctx context.Context, rawDID string) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}
	height, err := s.height(ctx)
	if err != nil {
		return err
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.identities.Get(ctx, caller); err == nil {
			return dErrors.New(dErrors.CodeAlreadyExists, "owner already holds an identity")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing identity")
		}

		did, err := domain.ParseDID(rawDID)
		if err != nil {
			return err
		}

		rec := models.NewIdentityRecord(did, height)
		if err := s.identities.Create(ctx, caller, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeAlreadyExists, "owner already holds an identity")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventDIDCreated, "owner", caller.String(), "did", rawDID)
	if s.metrics != nil {
		s.metrics.DIDsCreated.Inc()
	}
	return nil
}

// GetDID is a public read: any caller may look up any owner's record.
// A missing record yields (nil, nil), never an error.
func (s *Service) GetDID(ctx context.Context, owner domain.Owner) (*models.IdentityRecord, error) {
	rec, err := s.identities.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return rec, nil
}

// RevokeDID permanently deletes the caller's record. By default any
// pending transfer or transfer history keyed by the caller stays put;
// WithCascadeRevoke(true) removes those too.
func (s *Service) RevokeDID(ctx context.Context) error {
	caller, err := s.caller(ctx)
	if err != nil {
		return err
	}

	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.identities.Delete(ctx, caller); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "identity not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke identity")
		}

		if !s.cascadeRevoke {
			return nil
		}
		if err := s.transfers.Delete(ctx, caller); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to discard pending transfer")
		}
		if err := s.history.Delete(ctx, caller); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to discard transfer history")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventDIDRevoked, "owner", caller.String())
	if s.metrics != nil {
		s.metrics.DIDsRevoked.Inc()
	}
	return nil
}
