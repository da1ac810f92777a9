package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
	"veris/pkg/platform/tx"
)

// Postgres persists identity records one row per owner. Credentials
// live in a TEXT[] column since the vault is a bounded ordered list,
// not a relation anything joins against.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, owner domain.Owner) (*models.IdentityRecord, error) {
	q := tx.Resolve(ctx, s.db)

	var (
		rec         models.IdentityRecord
		credentials pq.StringArray
		reason      sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT did, credentials, created_at, updated_at, is_active, revocation_reason
		FROM identities WHERE owner = $1
	`, owner.String()).Scan(&rec.DID, &credentials, &rec.CreatedAt, &rec.UpdatedAt, &rec.Active, &reason)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}

	rec.Credentials = make([]domain.Credential, len(credentials))
	for i, c := range credentials {
		rec.Credentials[i] = domain.Credential(c)
	}
	if reason.Valid {
		rec.RevocationReason = reason.String
	}
	return &rec, nil
}

func (s *Postgres) Create(ctx context.Context, owner domain.Owner, rec *models.IdentityRecord) error {
	q := tx.Resolve(ctx, s.db)

	res, err := q.ExecContext(ctx, `
		INSERT INTO identities (owner, did, credentials, created_at, updated_at, is_active, revocation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner) DO NOTHING
	`, owner.String(), rec.DID.String(), credentialArray(rec), rec.CreatedAt, rec.UpdatedAt, rec.Active, nullReason(rec))
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	// ON CONFLICT DO NOTHING reports zero rows when the owner already
	// holds a record.
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) Put(ctx context.Context, owner domain.Owner, rec *models.IdentityRecord) error {
	q := tx.Resolve(ctx, s.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO identities (owner, did, credentials, created_at, updated_at, is_active, revocation_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner) DO UPDATE SET
			did = EXCLUDED.did,
			credentials = EXCLUDED.credentials,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			is_active = EXCLUDED.is_active,
			revocation_reason = EXCLUDED.revocation_reason
	`, owner.String(), rec.DID.String(), credentialArray(rec), rec.CreatedAt, rec.UpdatedAt, rec.Active, nullReason(rec))
	if err != nil {
		return fmt.Errorf("put identity: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, owner domain.Owner) error {
	q := tx.Resolve(ctx, s.db)

	res, err := q.ExecContext(ctx, `DELETE FROM identities WHERE owner = $1`, owner.String())
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func credentialArray(rec *models.IdentityRecord) pq.StringArray {
	arr := make(pq.StringArray, len(rec.Credentials))
	for i, c := range rec.Credentials {
		arr[i] = c.String()
	}
	return arr
}

func nullReason(rec *models.IdentityRecord) sql.NullString {
	if rec.RevocationReason == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: rec.RevocationReason, Valid: true}
}
