package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-auth-api/internal/models"
	appErrors "github.com/noah-isme/sma-auth-api/pkg/errors"
)

type revocationRepository interface {
	Create(ctx context.Context, record *models.RevokedToken) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type revocationCache interface {
	MarkRevoked(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// RevocationConfig tunes the revocation store.
type RevocationConfig struct {
	StoreTimeout time.Duration
	Now          func() time.Time
}

// RevocationService owns the revocation list. Postgres is authoritative; Redis, when present,
// only remembers positive answers.
type RevocationService struct {
	repo    revocationRepository
	cache   revocationCache
	metrics *MetricsService
	logger  *zap.Logger
	config  RevocationConfig
}

// NewRevocationService constructs a RevocationService. cache may be nil.
func NewRevocationService(repo revocationRepository, cache revocationCache, metrics *MetricsService, logger *zap.Logger, config RevocationConfig) *RevocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 3 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RevocationService{repo: repo, cache: cache, metrics: metrics, logger: logger, config: config}
}

// HashToken returns the hex SHA-256 of a token, the key under which revocations are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Revoke records token as revoked until expiresAt. It returns only after the Postgres write
// committed, so any IsRevoked that starts afterwards observes it.
func (s *RevocationService) Revoke(ctx context.Context, token, subjectID, tokenID string, expiresAt time.Time) error {
	hash := HashToken(token)
	record := &models.RevokedToken{
		TokenHash: hash,
		TokenID:   tokenID,
		UserID:    subjectID,
		RevokedAt: s.config.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	err := s.repo.Create(storeCtx, record)
	cancel()
	s.metrics.ObserveStore("revoke", time.Since(start))
	if err != nil {
		s.logger.Error("failed to persist revocation", zap.String("token_hash", shortHash(hash)), zap.String("user_id", subjectID), zap.Error(err))
		return storageError(err, "failed to revoke token")
	}

	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
		if err := s.cache.MarkRevoked(cacheCtx, hash, record.ExpiresAt); err != nil {
			s.logger.Warn("failed to cache revocation", zap.String("token_hash", shortHash(hash)), zap.Error(err))
		}
		cancel()
	}
	return nil
}

// IsRevoked reports whether token is on the revocation list. A storage failure is returned
// as an error and never reported as "not revoked".
func (s *RevocationService) IsRevoked(ctx context.Context, token string) (bool, error) {
	hash := HashToken(token)

	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
		hit, err := s.cache.IsRevoked(cacheCtx, hash)
		cancel()
		switch {
		case err != nil:
			s.metrics.ObserveCacheLookup("error")
			s.logger.Warn("revocation cache lookup failed, falling back to database", zap.Error(err))
		case hit:
			s.metrics.ObserveCacheLookup("hit")
			return true, nil
		default:
			s.metrics.ObserveCacheLookup("miss")
		}
	}

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	revoked, err := s.repo.Exists(storeCtx, hash)
	cancel()
	s.metrics.ObserveStore("is_revoked", time.Since(start))
	if err != nil {
		s.logger.Error("failed to check revocation", zap.String("token_hash", shortHash(hash)), zap.Error(err))
		return false, storageError(err, "failed to check token revocation")
	}
	return revoked, nil
}

// Prune deletes records whose tokens have expired on their own. It is maintenance work and
// never runs in the request path.
func (s *RevocationService) Prune(ctx context.Context) (int64, error) {
	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	deleted, err := s.repo.DeleteExpired(storeCtx, s.config.Now().UTC())
	cancel()
	s.metrics.ObserveStore("prune", time.Since(start))
	if err != nil {
		return 0, storageError(err, "failed to prune revoked tokens")
	}
	s.metrics.ObservePrune(deleted)
	return deleted, nil
}

func storageError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrStorageTimeout.Code, appErrors.ErrStorageTimeout.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}

func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
