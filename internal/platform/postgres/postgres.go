// Package postgres opens the registry database and applies its schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate applies the registry schema. Statements are idempotent so the
// call is safe on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS identities (
			owner             TEXT PRIMARY KEY,
			did               TEXT NOT NULL,
			credentials       TEXT[] NOT NULL DEFAULT '{}',
			created_at        BIGINT NOT NULL,
			updated_at        BIGINT NOT NULL,
			is_active         BOOLEAN NOT NULL DEFAULT TRUE,
			revocation_reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pending_transfers (
			owner        TEXT PRIMARY KEY,
			new_owner    TEXT NOT NULL,
			initiated_at BIGINT NOT NULL,
			expires_at   BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transfer_history (
			owner      TEXT NOT NULL,
			position   INT NOT NULL,
			from_owner TEXT NOT NULL,
			to_owner   TEXT NOT NULL,
			height     BIGINT NOT NULL,
			PRIMARY KEY (owner, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
