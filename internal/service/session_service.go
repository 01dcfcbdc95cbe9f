package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-auth-api/internal/models"
	appErrors "github.com/noah-isme/sma-auth-api/pkg/errors"
	"github.com/noah-isme/sma-auth-api/pkg/token"
)

type tokenCodec interface {
	Issue(identity token.Identity) (*token.Issued, error)
	Verify(tokenString string) (*token.Claims, error)
}

type revocationStore interface {
	Revoke(ctx context.Context, token, subjectID, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// SessionService issues, validates and revokes session tokens.
type SessionService struct {
	codec         tokenCodec
	store         revocationStore
	authenticator Authenticator
	validator     *validator.Validate
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(codec tokenCodec, store revocationStore, authenticator Authenticator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{
		codec:         codec,
		store:         store,
		authenticator: authenticator,
		validator:     validate,
		metrics:       metrics,
		logger:        logger,
	}
}

// Login asks the authenticator about the attempt and, when accepted, issues a token for the
// supplied identity.
func (s *SessionService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	ok, err := s.authenticator.Authenticate(ctx, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authenticate")
	}
	if !ok {
		s.metrics.ObserveLogin(false)
		s.logger.Info("login rejected", zap.String("ip", req.IP))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	issued, err := s.codec.Issue(token.Identity{
		SubjectID: req.ID,
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}
	s.metrics.ObserveLogin(true)
	s.logger.Info("token issued", zap.String("user_id", req.ID), zap.String("token_id", issued.Claims.TokenID()))

	return &models.LoginResponse{
		Token:     issued.Token,
		ExpiresIn: int64(issued.ExpiresAt.Sub(issued.Claims.IssuedAt.Time).Seconds()),
		User: models.UserInfo{
			ID:       req.ID,
			Username: req.Username,
			Email:    req.Email,
			Role:     req.Role,
		},
	}, nil
}

// ValidateToken accepts a token only when it verifies and is not on the revocation list.
// Verification runs first so malformed input never reaches storage.
func (s *SessionService) ValidateToken(ctx context.Context, tokenString string) (*models.ValidateTokenResponse, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		s.metrics.ObserveValidation(OutcomeInvalid)
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}

	revoked, err := s.store.IsRevoked(ctx, tokenString)
	if err != nil {
		s.metrics.ObserveValidation(OutcomeError)
		return nil, err
	}
	if revoked {
		s.metrics.ObserveValidation(OutcomeRevoked)
		return nil, appErrors.Clone(appErrors.ErrTokenRevoked, "")
	}

	s.metrics.ObserveValidation(OutcomeValid)
	return &models.ValidateTokenResponse{
		IsValid:  true,
		Message:  "token valid",
		UserID:   claims.SubjectID(),
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// Logout revokes a token that still verifies. A token that does not verify is a caller error
// and nothing is written.
func (s *SessionService) Logout(ctx context.Context, tokenString string) (*models.LogoutResponse, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		s.metrics.ObserveRevocation("rejected")
		return nil, appErrors.Clone(appErrors.ErrTokenNotRevocable, "")
	}

	if err := s.store.Revoke(ctx, tokenString, claims.SubjectID(), claims.TokenID(), claims.Expiry()); err != nil {
		s.metrics.ObserveRevocation("error")
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to revoke token")
	}

	s.metrics.ObserveRevocation("revoked")
	s.logger.Info("token revoked", zap.String("user_id", claims.SubjectID()), zap.String("token_id", claims.TokenID()))
	return &models.LogoutResponse{Success: true, Message: "logged out"}, nil
}
