package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-auth-api/internal/models"
)

// RevocationRepository persists revoked session tokens in Postgres.
type RevocationRepository struct {
	db *sqlx.DB
}

// NewRevocationRepository creates a new instance of RevocationRepository.
func NewRevocationRepository(db *sqlx.DB) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// Create inserts a revocation record. A record for the same token hash already present is
// not an error; the token is revoked either way.
func (r *RevocationRepository) Create(ctx context.Context, record *models.RevokedToken) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RevokedAt.IsZero() {
		record.RevokedAt = time.Now().UTC()
	}
	const query = `INSERT INTO revoked_tokens (id, token_hash, token_id, user_id, revoked_at, expires_at) VALUES (:id, :token_hash, :token_id, :user_id, :revoked_at, :expires_at) ON CONFLICT (token_hash) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create revoked token: %w", err)
	}
	return nil
}

// Exists reports whether a token hash is on the revocation list.
func (r *RevocationRepository) Exists(ctx context.Context, tokenHash string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, tokenHash); err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return exists, nil
}

// FindByHash returns the revocation record for a token hash.
func (r *RevocationRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RevokedToken, error) {
	const query = `SELECT id, token_hash, token_id, user_id, revoked_at, expires_at FROM revoked_tokens WHERE token_hash = $1 LIMIT 1`
	var record models.RevokedToken
	if err := r.db.GetContext(ctx, &record, query, tokenHash); err != nil {
		return nil, fmt.Errorf("find revoked token: %w", err)
	}
	return &record, nil
}

// DeleteExpired removes records whose token would have expired before cutoff.
func (r *RevocationRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM revoked_tokens WHERE expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired revoked tokens: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired revoked tokens: %w", err)
	}
	return affected, nil
}

// Ping checks connectivity for readiness probes.
func (r *RevocationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
