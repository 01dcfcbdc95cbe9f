package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-auth-api/internal/middleware"
)

// RegisterRoutes mounts the token routes under prefix and the operational routes at the root.
func RegisterRoutes(r gin.IRouter, prefix string, session *SessionHandler, health *HealthHandler) {
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	auth := r.Group(prefix)
	auth.POST("/login", session.Login)
	auth.POST("/validate-token", session.ValidateToken)
	auth.GET("/validate", middleware.BearerToken(), session.ValidateBearer)
	auth.POST("/logout", session.Logout)
}
