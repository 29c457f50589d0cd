package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/service"
	"fms/pkg/apperror"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenTable map[string]lifecycle.Actor

func (t tokenTable) Authenticate(_ context.Context, token string) (lifecycle.Actor, service.TokenClaims, error) {
	actor, ok := t[token]
	if !ok {
		return lifecycle.Actor{}, service.TokenClaims{}, apperror.Unauthenticated("invalid token")
	}
	return actor, service.TokenClaims{UserID: actor.UserID, Role: actor.Role, TokenID: token}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(tokens tokenTable, guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/vendors", Authenticate(tokens), guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, ActorFrom(c).Role))
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestRequire(t *testing.T) {
	tokens := tokenTable{
		"staff":   {UserID: uuid.New(), Role: lifecycle.RoleStaff},
		"manager": {UserID: uuid.New(), Role: lifecycle.RoleFacilityManager},
	}
	r := newRouter(tokens, Require(lifecycle.ActionView, lifecycle.EntityVendor))

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		code   string
	}{
		{"missing token", "", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"malformed header", "Token staff", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"unknown token", "Bearer nope", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"role without grant", "Bearer staff", "", http.StatusForbidden, "UNAUTHORIZED"},
		{"granted via header", "Bearer manager", "", http.StatusOK, ""},
		{"cookie wins over header", "Bearer staff", "manager", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AccessCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := tokenTable{
		"admin":   {UserID: uuid.New(), Role: lifecycle.RoleAdmin},
		"manager": {UserID: uuid.New(), Role: lifecycle.RoleFacilityManager},
	}
	r := newRouter(tokens, RequireRole(lifecycle.RoleAdmin))

	for token, status := range map[string]int{"admin": http.StatusOK, "manager": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/vendors", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, token)
	}
}

func TestTokenCookies(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)

	SetTokenCookies(c, CookieConfig{Secure: true, AccessTTL: time.Minute, RefreshTTL: time.Hour}, "a", "r")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.True(t, ck.HttpOnly)
		assert.True(t, ck.Secure)
		assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	}
	assert.Equal(t, AccessCookie, cookies[0].Name)
	assert.Equal(t, 60, cookies[0].MaxAge)
	assert.Equal(t, RefreshCookie, cookies[1].Name)
	assert.Equal(t, 3600, cookies[1].MaxAge)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(60, 2, zap.NewNop())
	r := gin.New()
	r.POST("/auth/sign-in", limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2"))
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)
}
