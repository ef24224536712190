package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

// NewUserHandler sets up the routing dependencies for user management endpoints
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/api/admin/users")
	users.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		users.GET("", h.ListUsers)
		users.GET("/pending", h.ListPendingUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", h.CreateUser)
		users.PATCH("/:id", h.UpdateUser)
		users.PUT("/:id/approve", h.ApproveUser)
		users.PUT("/:id/reject", h.RejectUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers handles GET /api/admin/users with role/region/search filters
// @Summary      List users
// @Description  Retrieves a paginated, role-scoped list of users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Param        region    query     string  false  "Filter by region (ignored for regional admins)"
// @Param        role      query     string  false  "Filter by role"
// @Param        search    query     string  false  "Search by name or email"
// @Param        approved  query     bool    false  "Filter by approval state"
// @Success      200       {object}  response.Response{data=[]service.UserResponse}
// @Failure      500       {object}  response.Response
// @Router       /api/admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	var approved *bool
	if a := c.Query("approved"); a != "" {
		v := a == "true"
		approved = &v
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("role"), c.Query("search"), approved, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, params.Page, params.Limit, total))
}

// ListPendingUsers handles GET /api/admin/users/pending for the review queue
// @Summary      List users awaiting approval
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.UserResponse}
// @Router       /api/admin/users/pending [get]
func (h *UserHandler) ListPendingUsers(c *gin.Context) {
	params := pagination.Parse(c)

	pending := false
	users, total, err := h.userService.ListUsers(c.Request.Context(), actorFromContext(c),
		c.Query("region"), "", c.Query("search"), &pending, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch users"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, users, params.Page, params.Limit, total))
}

// GetUser handles GET /api/admin/users/:id
// @Summary      Get user by ID
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser handles POST /api/admin/users
// @Summary      Create a user
// @Description  Creates an account in any role. Admin roles require a password; regional admins require admin_region_id.
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateUser handles PATCH /api/admin/users/:id
// @Summary      Update a user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ApproveUser handles PUT /api/admin/users/:id/approve
// @Summary      Approve a registration
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id}/approve [put]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	user, err := h.userService.ApproveUser(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// RejectUser handles PUT /api/admin/users/:id/reject
// @Summary      Reject a registration
// @Description  Keeps the account row but blocks it from signing in
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id}/reject [put]
func (h *UserHandler) RejectUser(c *gin.Context) {
	user, err := h.userService.RejectUser(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser handles DELETE /api/admin/users/:id
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "User deleted successfully"))
}
