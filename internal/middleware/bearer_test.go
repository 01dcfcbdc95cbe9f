package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"absent", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case insensitive scheme", "bearer abc.def.ghi", "abc.def.ghi"},
		{"padded", "Bearer   abc.def.ghi  ", "abc.def.ghi"},
		{"basic scheme", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			router := gin.New()
			router.GET("/", BearerToken(), func(c *gin.Context) {
				got = TokenFromContext(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tc.want, got)
		})
	}
}
