package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextTokenKey is the gin context key storing the bearer token taken from the request.
const ContextTokenKey = "bearerToken"

// BearerToken copies the token of an "Authorization: Bearer <token>" header into the context.
// It never blocks; handlers decide what a missing token means.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		if token := strings.TrimSpace(parts[1]); token != "" {
			c.Set(ContextTokenKey, token)
		}
		c.Next()
	}
}

// TokenFromContext returns the bearer token stored by BearerToken, or "".
func TokenFromContext(c *gin.Context) string {
	value, exists := c.Get(ContextTokenKey)
	if !exists {
		return ""
	}
	token, _ := value.(string)
	return token
}
