package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fms/internal/lifecycle"
	"fms/internal/service"
	"fms/pkg/apperror"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	actorKey  = "actor"
	claimsKey = "tokenClaims"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Authenticator resolves the caller behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (lifecycle.Actor, service.TokenClaims, error)
}

// CookieConfig controls the auth cookies.
type CookieConfig struct {
	// Secure switches to SameSite=None; Secure for cross-origin deployments.
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, cfg CookieConfig, accessToken, refreshToken string) {
	setSameSite(c, cfg)
	c.SetCookie(AccessCookie, accessToken, int(cfg.AccessTTL.Seconds()), "/", "", cfg.Secure, true)
	c.SetCookie(RefreshCookie, refreshToken, int(cfg.RefreshTTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context, cfg CookieConfig) {
	setSameSite(c, cfg)
	c.SetCookie(AccessCookie, "", -1, "/", "", cfg.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", cfg.Secure, true)
}

func setSameSite(c *gin.Context, cfg CookieConfig) {
	if cfg.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}

// Authenticate resolves the Actor once per request. The token comes from the
// access_token cookie, falling back to the Authorization header.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := tokenFrom(c)
		if err != nil {
			abort(c, err)
			return
		}
		actor, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Require refuses the request unless the caller may perform action on entity.
// It must run after Authenticate.
func Require(action lifecycle.Action, entity lifecycle.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.IsZero() {
			abort(c, apperror.Unauthenticated("authentication required"))
			return
		}
		if !actor.Can(action, entity) {
			abort(c, apperror.Unauthorized("access denied: "+string(actor.Role)+" may not "+string(action)+" "+string(entity)))
			return
		}
		c.Next()
	}
}

// RequireRole admits only the listed roles.
func RequireRole(roles ...lifecycle.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.IsZero() {
			abort(c, apperror.Unauthenticated("authentication required"))
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, apperror.Unauthorized("access denied: insufficient permissions"))
	}
}

// ActorFrom returns the authenticated caller, or the zero Actor.
func ActorFrom(c *gin.Context) lifecycle.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(lifecycle.Actor); ok {
			return actor
		}
	}
	return lifecycle.Actor{}
}

func ClaimsFrom(c *gin.Context) service.TokenClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(service.TokenClaims); ok {
			return claims
		}
	}
	return service.TokenClaims{}
}

func tokenFrom(c *gin.Context) (string, error) {
	if token, err := c.Cookie(AccessCookie); err == nil && token != "" {
		return token, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperror.Unauthenticated("authorization is missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperror.Unauthenticated("invalid authorization format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

func abort(c *gin.Context, err error) {
	status, body := response.FromError(err)
	c.AbortWithStatusJSON(status, body)
}
