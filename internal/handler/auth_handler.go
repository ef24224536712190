package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService service.AuthService
	rateLimiter *middleware.IPRateLimiter
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(authService service.AuthService, rateLimiter *middleware.IPRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, rateLimiter: rateLimiter}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register-passwordless", h.RegisterPasswordless)
		auth.POST("/request-magic-link", h.rateLimiter.Middleware(), h.RequestMagicLink)
		auth.POST("/verify-magic-link", h.VerifyMagicLink)
		auth.POST("/login", h.Login)
		auth.POST("/check-user-role", h.CheckUserRole)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.RequireRole("user", "admin", "regional-admin", "super-admin"), h.Me)
	}
}

// RegisterPasswordless handles POST /api/auth/register-passwordless
// @Summary      Register a program participant
// @Description  Creates a passwordless user account pending admin approval
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterPasswordlessRequest  true  "Registration Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/register-passwordless [post]
func (h *AuthHandler) RegisterPasswordless(c *gin.Context) {
	var req service.RegisterPasswordlessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.authService.RegisterPasswordless(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// RequestMagicLink handles POST /api/auth/request-magic-link
// @Summary      Request a magic sign-in link
// @Description  Emails a single-use sign-in link to an approved participant. Always responds 200 so account existence cannot be probed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.MagicLinkRequest  true  "Magic Link Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /api/auth/request-magic-link [post]
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req service.MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.authService.RequestMagicLink(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to send sign-in link"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"message": "If an eligible account exists, a sign-in link has been sent",
	}))
}

// VerifyMagicLink handles POST /api/auth/verify-magic-link
// @Summary      Verify a magic sign-in link
// @Description  Consumes a single-use sign-in token and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyMagicLinkRequest  true  "Verification Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/verify-magic-link [post]
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	var req service.VerifyMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, token, err := h.authService.VerifyMagicLink(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	middleware.SetSessionCookie(c, token)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	}))
}

// Login handles POST /api/auth/login for password-holding admin roles
// @Summary      Login with email and password
// @Description  Authenticates an administrative account by email, region and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	middleware.SetSessionCookie(c, token)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	}))
}

// CheckUserRole handles POST /api/auth/check-user-role
// @Summary      Check registrations for an email
// @Description  Returns the (region, role) registrations for an email so the client can pick the password or magic-link flow
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CheckUserRoleRequest  true  "Email Payload"
// @Success      200      {object}  response.Response{data=[]service.RegistrationInfo}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/check-user-role [post]
func (h *AuthHandler) CheckUserRole(c *gin.Context) {
	var req service.CheckUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	infos, err := h.authService.CheckUserRole(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to look up registrations"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, infos))
}

// Me handles GET /api/auth/me returning the authenticated user
// @Summary      Get current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// Logout handles POST /api/auth/logout by clearing the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}
