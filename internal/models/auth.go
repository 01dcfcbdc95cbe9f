package models

// LoginRequest carries the identity to embed in the token plus the credential checked by
// the authenticator.
type LoginRequest struct {
	ID        string `json:"id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required"`
	Password  string `json:"password,omitempty"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and the user it was issued for.
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresIn int64    `json:"expiresIn"`
	User      UserInfo `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TokenRequest is the body of validate-token and logout.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ValidateTokenResponse reports the verdict on a token.
type ValidateTokenResponse struct {
	IsValid  bool   `json:"isValid"`
	Message  string `json:"message"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// LogoutResponse reports the outcome of a logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
