package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-auth-api/internal/middleware"
	"github.com/noah-isme/sma-auth-api/internal/models"
	appErrors "github.com/noah-isme/sma-auth-api/pkg/errors"
)

type fakeSessionSrv struct {
	loginResp    *models.LoginResponse
	loginErr     error
	lastLogin    models.LoginRequest
	validateResp *models.ValidateTokenResponse
	validateErr  error
	lastToken    string
	logoutResp   *models.LogoutResponse
	logoutErr    error
}

func (f *fakeSessionSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	return f.loginResp, f.loginErr
}

func (f *fakeSessionSrv) ValidateToken(_ context.Context, token string) (*models.ValidateTokenResponse, error) {
	f.lastToken = token
	return f.validateResp, f.validateErr
}

func (f *fakeSessionSrv) Logout(_ context.Context, token string) (*models.LogoutResponse, error) {
	f.lastToken = token
	return f.logoutResp, f.logoutErr
}

func newSessionRouter(srv *fakeSessionSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSessionHandler(srv)
	router := gin.New()
	router.POST("/login", h.Login)
	router.POST("/validate-token", h.ValidateToken)
	router.GET("/validate", middleware.BearerToken(), h.ValidateBearer)
	router.POST("/logout", h.Logout)
	return router
}

func doJSON(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandlerLogin(t *testing.T) {
	srv := &fakeSessionSrv{loginResp: &models.LoginResponse{
		Token:     "a.b.c",
		ExpiresIn: 3600,
		User:      models.UserInfo{ID: "u1", Username: "alice", Email: "a@x.com", Role: "admin"},
	}}
	router := newSessionRouter(srv)

	rec := doJSON(router, http.MethodPost, "/login", `{"id":"u1","username":"alice","email":"a@x.com","role":"admin","password":"pw"}`, map[string]string{"User-Agent": "probe"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a.b.c", body["token"])
	assert.Equal(t, "alice", body["user"].(map[string]interface{})["username"])
	assert.Equal(t, "pw", srv.lastLogin.Password)
	assert.Equal(t, "probe", srv.lastLogin.UserAgent)
}

func TestSessionHandlerLoginErrors(t *testing.T) {
	router := newSessionRouter(&fakeSessionSrv{loginErr: appErrors.ErrInvalidCredentials})

	rec := doJSON(router, http.MethodPost, "/login", `{"id":"u1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)

	rec = doJSON(router, http.MethodPost, "/login", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandlerValidateToken(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"valid", nil, http.StatusOK, "token valid"},
		{"invalid", appErrors.ErrInvalidToken, http.StatusUnauthorized, "token invalid or expired"},
		{"revoked", appErrors.ErrTokenRevoked, http.StatusUnauthorized, "token has been revoked"},
		{"missing", appErrors.Clone(appErrors.ErrValidation, "token is required"), http.StatusBadRequest, "token not provided"},
		{"storage", appErrors.Wrap(errors.New("reset"), appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check token revocation"), http.StatusInternalServerError, "failed to check token revocation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := &fakeSessionSrv{validateErr: tc.err}
			if tc.err == nil {
				srv.validateResp = &models.ValidateTokenResponse{IsValid: true, Message: "token valid", UserID: "u1", Username: "alice", Role: "admin"}
			}
			router := newSessionRouter(srv)

			rec := doJSON(router, http.MethodPost, "/validate-token", `{"token":"a.b.c"}`, nil)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body models.ValidateTokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.err == nil, body.IsValid)
			assert.Equal(t, tc.wantMsg, body.Message)
			assert.Equal(t, "a.b.c", srv.lastToken)
		})
	}
}

func TestSessionHandlerValidateBearer(t *testing.T) {
	srv := &fakeSessionSrv{validateResp: &models.ValidateTokenResponse{IsValid: true, Message: "token valid", UserID: "u1"}}
	router := newSessionRouter(srv)

	rec := doJSON(router, http.MethodGet, "/validate", "", map[string]string{"Authorization": "Bearer a.b.c"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.b.c", srv.lastToken)

	srv.validateResp = nil
	srv.validateErr = appErrors.Clone(appErrors.ErrValidation, "token is required")
	rec = doJSON(router, http.MethodGet, "/validate", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "", srv.lastToken)
}

func TestSessionHandlerLogout(t *testing.T) {
	srv := &fakeSessionSrv{logoutResp: &models.LogoutResponse{Success: true, Message: "logged out"}}
	router := newSessionRouter(srv)

	rec := doJSON(router, http.MethodPost, "/logout", `{"token":"a.b.c"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body models.LogoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)

	srv.logoutResp = nil
	srv.logoutErr = appErrors.ErrTokenNotRevocable
	rec = doJSON(router, http.MethodPost, "/logout", `{"token":"x.y.z"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = models.LogoutResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)

	srv.logoutErr = appErrors.ErrStorageTimeout
	rec = doJSON(router, http.MethodPost, "/logout", `{"token":"a.b.c"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(router, http.MethodPost, "/logout", `[]`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
