package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// revocationSchema creates the revocation list. token_hash is unique so two concurrent
// logouts of the same token collapse into one row.
var revocationSchema = []string{
	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		id UUID PRIMARY KEY,
		token_hash CHAR(64) NOT NULL,
		token_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		revoked_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_revoked_tokens_token_hash ON revoked_tokens (token_hash)`,
	`CREATE INDEX IF NOT EXISTS ix_revoked_tokens_expires_at ON revoked_tokens (expires_at)`,
	`CREATE INDEX IF NOT EXISTS ix_revoked_tokens_user_id ON revoked_tokens (user_id)`,
}

// EnsureRevocationSchema applies the revocation DDL. Every statement is idempotent.
func EnsureRevocationSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range revocationSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure revocation schema: %w", err)
		}
	}
	return nil
}
