package service

import (
	"context"
	"errors"

	"veris/internal/audit"
	"veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/platform/sentinel"
)

// AddCredential appends an opaque credential statement to the caller's
// record. Credentials are immutable once stored; there is no update or
// delete operation.
func (s *Service) AddCredential(ctx context.Context, rawCredential string) error {
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

		cred, err := domain.ParseCredential(rawCredential)
		if err != nil {
			return err
		}

		if err := rec.CanAddCredential(); err != nil {
			return err
		}
		rec.ApplyCredential(cred, height)

		if err := s.identities.Put(ctx, caller, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventCredentialAdded, "owner", caller.String())
	if s.metrics != nil {
		s.metrics.CredentialsAdded.Inc()
	}
	return nil
}

// VerifyCredential reports whether owner's record exists, is active,
// and contains an entry exactly equal to credential. This is a
// membership test, not cryptographic verification.
func (s *Service) VerifyCredential(ctx context.Context, owner domain.Owner, credential string) (bool, error) {
	rec, err := s.identities.Get(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	if !rec.Active {
		return false, nil
	}
	return rec.HasCredential(domain.Credential(credential)), nil
}
