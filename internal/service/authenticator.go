package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-auth-api/internal/models"
)

// Authenticator decides whether a login attempt is legitimate. The session service treats
// the answer as opaque.
type Authenticator interface {
	Authenticate(ctx context.Context, req models.LoginRequest) (bool, error)
}

// StaticAuthenticator accepts a single operator credential taken from configuration.
type StaticAuthenticator struct {
	email        string
	passwordHash []byte
}

// NewStaticAuthenticator builds an authenticator for email. password may be plaintext or an
// existing bcrypt hash; plaintext is hashed once here so it is not kept in memory.
func NewStaticAuthenticator(email, password string, cost int) (*StaticAuthenticator, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("static authenticator requires email and password")
	}
	if isBcryptHash(password) {
		return &StaticAuthenticator{email: normalizeEmail(email), passwordHash: []byte(password)}, nil
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &StaticAuthenticator{email: normalizeEmail(email), passwordHash: hash}, nil
}

// Authenticate checks the email and password. The bcrypt comparison always runs so a wrong
// email costs the same as a wrong password.
func (a *StaticAuthenticator) Authenticate(_ context.Context, req models.LoginRequest) (bool, error) {
	passwordOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) == nil
	return passwordOK && normalizeEmail(req.Email) == a.email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
