package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-auth-api/internal/middleware"
	"github.com/noah-isme/sma-auth-api/internal/models"
	appErrors "github.com/noah-isme/sma-auth-api/pkg/errors"
	"github.com/noah-isme/sma-auth-api/pkg/response"
)

type sessionService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (*models.ValidateTokenResponse, error)
	Logout(ctx context.Context, token string) (*models.LogoutResponse, error)
}

// SessionHandler wires HTTP endpoints to the session service.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Login issues a token for an accepted login attempt.
func (h *SessionHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// ValidateToken reports whether the token in the request body is currently valid.
func (h *SessionHandler) ValidateToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, models.ValidateTokenResponse{Message: "token not provided"})
		return
	}
	h.validate(c, req.Token)
}

// ValidateBearer is ValidateToken for callers that send the token as a bearer credential.
func (h *SessionHandler) ValidateBearer(c *gin.Context) {
	h.validate(c, middleware.TokenFromContext(c))
}

func (h *SessionHandler) validate(c *gin.Context, token string) {
	res, err := h.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		appErr := publicError(c, err)
		response.JSON(c, appErr.Status, models.ValidateTokenResponse{IsValid: false, Message: appErr.Message})
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout revokes the token in the request body.
func (h *SessionHandler) Logout(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, models.LogoutResponse{Message: "token not provided"})
		return
	}

	res, err := h.service.Logout(c.Request.Context(), req.Token)
	if err != nil {
		appErr := publicError(c, err)
		response.JSON(c, appErr.Status, models.LogoutResponse{Success: false, Message: appErr.Message})
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// publicError maps a service error to what the client sees. Server-side failures are attached
// to the gin context so the request logger records the cause.
func publicError(c *gin.Context, err error) *appErrors.Error {
	appErr := appErrors.FromError(err)
	if appErr.Code == appErrors.ErrValidation.Code {
		return appErrors.Clone(appErrors.ErrValidation, "token not provided")
	}
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	return appErr
}
