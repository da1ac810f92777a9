// Package store provides the atomic execution wrappers the identity
// service runs its mutations under. Every mutating operation commits
// all-or-nothing across the identity, transfer, and history stores:
// the in-memory runner serializes through one global mutex (single
// writer), the Postgres runner opens a serializable transaction shared
// with the stores through context.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"veris/pkg/platform/tx"
)

// MemoryTx serializes mutations with a single global mutex. Paired with
// the in-memory stores this gives the same all-or-nothing visibility a
// database transaction would: validation happens before any write, and
// the writes themselves cannot fail midway.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// serializationFailure is the Postgres class 40001 SQLSTATE.
const serializationFailure = "40001"

// maxTxRetries bounds retries after serialization conflicts.
const maxTxRetries = 3

// PostgresTx runs fn inside a serializable transaction, retrying on
// serialization conflicts. The open *sql.Tx travels to the stores via
// pkg/platform/tx.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

func (t *PostgresTx) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == serializationFailure
}
