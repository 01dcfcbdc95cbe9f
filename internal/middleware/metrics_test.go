package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-auth-api/internal/service"
)

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	router := gin.New()
	router.Use(Metrics(metrics))
	router.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	expected := `http_requests_total{method="POST",path="/api/auth/login",status="401"} 1`
	body := scrape(t, metrics)
	assert.True(t, strings.Contains(body, expected), body)
}

func TestMetricsNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(nil))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func scrape(t *testing.T, metrics *service.MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
