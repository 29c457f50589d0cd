package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/pagination"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	cookies     middleware.CookieConfig
}

// NewUserHandler sets up the routing dependencies for auth and user endpoints
func NewUserHandler(userService service.UserService, cookies middleware.CookieConfig) *UserHandler {
	return &UserHandler{userService: userService, cookies: cookies}
}

// RegisterRoutes binds the public auth endpoints to public and everything
// that needs a caller to private.
func (h *UserHandler) RegisterRoutes(public, private *gin.RouterGroup, limiter gin.HandlerFunc) {
	auth := public.Group("/auth")
	{
		auth.POST("/sign-up", limiter, h.SignUp)
		auth.POST("/sign-in", limiter, h.SignIn)
		auth.POST("/refresh", h.Refresh)
	}
	private.POST("/auth/sign-out", h.SignOut)
	private.GET("/auth/me", h.Me)

	admin := private.Group("/admin/users", middleware.RequireRole(lifecycle.RoleAdmin))
	{
		admin.GET("", h.ListUsers)
		admin.POST("", h.ProvisionUser)
		admin.PUT("/:id/active", h.SetActive)
	}
}

// SignUp registers a staff account
// @Summary      Sign up
// @Description  Creates a staff account and signs it in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignUpRequest  true  "Sign-up payload"
// @Success      201      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/sign-up [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req service.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.userService.SignUp(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetTokenCookies(c, h.cookies, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokens))
}

// SignIn authenticates with email and password
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignInRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/sign-in [post]
func (h *UserHandler) SignIn(c *gin.Context) {
	var req service.SignInRequest
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.userService.SignIn(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.SetTokenCookies(c, h.cookies, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh rotates the refresh token
// @Summary      Refresh tokens
// @Description  Reads refresh_token from the cookie, falling back to the body
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh token"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req service.RefreshTokenRequest
	if token, err := c.Cookie(middleware.RefreshCookie); err == nil && token != "" {
		req.RefreshToken = token
	} else if !bindJSON(c, &req) {
		return
	}
	tokens, err := h.userService.Refresh(c.Request.Context(), req)
	if err != nil {
		middleware.ClearTokenCookies(c, h.cookies)
		fail(c, err)
		return
	}
	middleware.SetTokenCookies(c, h.cookies, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// SignOut revokes the caller's tokens
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /auth/sign-out [post]
func (h *UserHandler) SignOut(c *gin.Context) {
	if err := h.userService.SignOut(c.Request.Context(), middleware.ActorFrom(c), middleware.ClaimsFrom(c)); err != nil {
		fail(c, err)
		return
	}
	middleware.ClearTokenCookies(c, h.cookies)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Signed out"))
}

// Me returns the current user profile and role
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ProvisionUser creates an account with any role
// @Summary      Provision a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProvisionUserRequest  true  "New user"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /admin/users [post]
func (h *UserHandler) ProvisionUser(c *gin.Context) {
	var req service.ProvisionUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.ProvisionUser(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// ListUsers handles GET /admin/users and extracts pagination controls
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), middleware.ActorFrom(c), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(users, total)))
}

// SetActive activates or deactivates an account
// @Summary      Activate or deactivate a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "User ID"
// @Param        payload  body      service.SetActiveRequest  true  "Active flag"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Router       /admin/users/{id}/active [put]
func (h *UserHandler) SetActive(c *gin.Context) {
	var req service.SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.SetUserActive(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
