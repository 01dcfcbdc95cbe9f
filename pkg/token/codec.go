package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidToken is the only failure Verify reports. Malformed input, a bad signature,
// a foreign issuer or audience and expiry are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal a token is minted for.
type Identity struct {
	SubjectID string
	Username  string
	Email     string
	Role      string
}

// Claims is the payload carried by a session token.
type Claims struct {
	Username string `json:"given_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID returns the sub claim.
func (c *Claims) SubjectID() string { return c.Subject }

// TokenID returns the jti claim.
func (c *Claims) TokenID() string { return c.ID }

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issued is the result of minting a token.
type Issued struct {
	Token     string
	Claims    *Claims
	ExpiresAt time.Time
}

// Config configures a Codec.
type Config struct {
	Secret         string
	SecretEncoding SecretEncoding
	Issuer         string
	Audience       string
	Lifetime       time.Duration
	// Now overrides the clock; nil means time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Codec signs and verifies HS256 session tokens. It is immutable after construction
// and safe for concurrent use.
type Codec struct {
	key      []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
	logger   *zap.Logger
	parser   *jwt.Parser
}

// NewCodec derives the signing key and validates the claim constraints. Any error here is
// a configuration error and must stop the process.
func NewCodec(cfg Config) (*Codec, error) {
	key, decoded, err := LoadSigningKey(cfg.Secret, cfg.SecretEncoding)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("token issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("token audience is required")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.Lifetime)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SecretEncoding == SecretEncodingAuto || cfg.SecretEncoding == "" {
		cfg.Logger.Info("signing key derived", zap.Bool("base64_decoded", decoded), zap.Int("key_bytes", len(key)))
	}

	c := &Codec{
		key:      key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: cfg.Lifetime,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Lifetime reports how long issued tokens stay valid.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Issue mints a signed token for identity with a fresh jti. Callers validate the identity.
func (c *Codec) Issue(identity Identity) (*Issued, error) {
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.lifetime)

	claims := &Claims{
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.SubjectID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Issued{Token: signed, Claims: claims, ExpiresAt: expiresAt}, nil
}

// Verify checks structure, signature (constant-time HMAC compare), issuer, audience and
// expiry with zero leeway. A token is accepted only while now < exp.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		c.logger.Debug("token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		c.logger.Debug("token rejected", zap.String("reason", "missing sub or jti"))
		return nil, ErrInvalidToken
	}
	return claims, nil
}
