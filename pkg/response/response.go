package response

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-auth-api/pkg/errors"
)

// Envelope carries error details for routes without a dedicated error body.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// JSON writes a body as-is. Token routes answer with their own shapes, not the envelope.
func JSON(c *gin.Context, status int, body interface{}) {
	noStore(c)
	c.JSON(status, body)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Token material must never be cached by intermediaries.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
