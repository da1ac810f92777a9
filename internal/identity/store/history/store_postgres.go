package history

import (
	"context"
	"database/sql"
	"fmt"

	"veris/internal/identity/models"
	"veris/pkg/domain"
	"veris/pkg/platform/sentinel"
	"veris/pkg/platform/tx"
)

// Postgres persists per-owner transfer logs, one row per entry with an
// explicit position so insertion order survives round trips.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, owner domain.Owner) ([]models.TransferHistoryEntry, error) {
	q := tx.Resolve(ctx, s.db)

	rows, err := q.QueryContext(ctx, `
		SELECT from_owner, to_owner, height
		FROM transfer_history WHERE owner = $1
		ORDER BY position
	`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("get transfer history: %w", err)
	}
	defer rows.Close()

	entries := []models.TransferHistoryEntry{}
	for rows.Next() {
		var e models.TransferHistoryEntry
		if err := rows.Scan(&e.From, &e.To, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transfer history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer history: %w", err)
	}
	return entries, nil
}

func (s *Postgres) Append(ctx context.Context, owner domain.Owner, entry models.TransferHistoryEntry) error {
	q := tx.Resolve(ctx, s.db)

	// Single statement append: position is derived from the current
	// count, and the insert is refused at capacity.
	res, err := q.ExecContext(ctx, `
		INSERT INTO transfer_history (owner, position, from_owner, to_owner, height)
		SELECT $1, COUNT(*), $2, $3, $4
		FROM transfer_history WHERE owner = $1
		HAVING COUNT(*) < $5
	`, owner.String(), entry.From.String(), entry.To.String(), entry.Timestamp, models.MaxTransferHistory)
	if err != nil {
		return fmt.Errorf("append transfer history: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append transfer history: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrCapacity
	}
	return nil
}

// Delete discards the owner's entire log. Only used by cascade revoke.
func (s *Postgres) Delete(ctx context.Context, owner domain.Owner) error {
	q := tx.Resolve(ctx, s.db)

	if _, err := q.ExecContext(ctx, `DELETE FROM transfer_history WHERE owner = $1`, owner.String()); err != nil {
		return fmt.Errorf("delete transfer history: %w", err)
	}
	return nil
}
