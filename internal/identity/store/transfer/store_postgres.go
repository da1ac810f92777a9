package transfer

import (
	"context"
	"database/sql"
	"fmt"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
	"veris/pkg/platform/tx"
)

// Postgres persists pending transfers one row per current owner.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, owner domain.Owner) (*models.PendingTransfer, error) {
	q := tx.Resolve(ctx, s.db)

	var pt models.PendingTransfer
	err := q.QueryRowContext(ctx, `
		SELECT new_owner, initiated_at, expires_at
		FROM pending_transfers WHERE owner = $1
	`, owner.String()).Scan(&pt.NewOwner, &pt.InitiatedAt, &pt.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get pending transfer: %w", err)
	}
	return &pt, nil
}

func (s *Postgres) Create(ctx context.Context, owner domain.Owner, pt *models.PendingTransfer) error {
	q := tx.Resolve(ctx, s.db)

	res, err := q.ExecContext(ctx, `
		INSERT INTO pending_transfers (owner, new_owner, initiated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner) DO NOTHING
	`, owner.String(), pt.NewOwner.String(), pt.InitiatedAt, pt.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create pending transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create pending transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, owner domain.Owner) error {
	q := tx.Resolve(ctx, s.db)

	res, err := q.ExecContext(ctx, `DELETE FROM pending_transfers WHERE owner = $1`, owner.String())
	if err != nil {
		return fmt.Errorf("delete pending transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending transfer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
