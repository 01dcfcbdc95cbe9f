package models

import "time"

// RevokedToken is a durable marker that a specific session token must be rejected.
// Rows are never updated; they may be deleted once ExpiresAt has passed.
type RevokedToken struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	TokenID   string    `db:"token_id" json:"token_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RevokedAt time.Time `db:"revoked_at" json:"revoked_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}
