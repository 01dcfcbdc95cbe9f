package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revocationKeyPrefix = "auth:revoked:"

// RevocationCacheRepository keeps a positive-only Redis mirror of the revocation list.
// Only "revoked" is ever cached; a miss says nothing and callers must consult Postgres.
type RevocationCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRevocationCacheRepository constructs a cache repository. A nil client disables it.
func NewRevocationCacheRepository(client *redis.Client, logger *zap.Logger) *RevocationCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationCacheRepository{client: client, logger: logger}
}

// Enabled reports whether a Redis client is attached.
func (r *RevocationCacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// MarkRevoked stores the hash until the token's own expiry. Already expired tokens are skipped.
func (r *RevocationCacheRepository) MarkRevoked(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if !r.Enabled() {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := revocationKeyPrefix + tokenHash
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// IsRevoked reports a cache hit. A miss returns false with no error.
func (r *RevocationCacheRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	key := revocationKeyPrefix + tokenHash
	if err := r.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return true, nil
}

// Close releases the underlying Redis connection if present.
func (r *RevocationCacheRepository) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}
