package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService service.TicketService
}

// NewTicketHandler sets up the routing dependencies for support ticket endpoints
func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TicketHandler) RegisterRoutes(router *gin.RouterGroup) {
	tickets := router.Group("/api/tickets")
	tickets.Use(middleware.RequireRole("user"))
	{
		tickets.POST("", h.CreateTicket)
		tickets.GET("", h.ListMyTickets)
	}

	admin := router.Group("/api/admin/tickets")
	admin.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		admin.GET("", h.ListTickets)
		admin.GET("/:id", h.GetTicket)
		admin.PATCH("/:id", h.RespondTicket)
	}
}

// CreateTicket handles POST /api/tickets
// @Summary      Open a support ticket
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTicketRequest  true  "Ticket Payload"
// @Success      201      {object}  response.Response{data=model.SupportTicket}
// @Failure      400      {object}  response.Response
// @Router       /api/tickets [post]
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ticket))
}

// ListMyTickets handles GET /api/tickets returning the caller's own tickets
// @Summary      List my tickets
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=[]model.SupportTicket}
// @Failure      500     {object}  response.Response
// @Router       /api/tickets [get]
func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	params := pagination.Parse(c)

	tickets, total, err := h.ticketService.ListMyTickets(c.Request.Context(), actorFromContext(c),
		c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tickets"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, tickets, params.Page, params.Limit, total))
}

// ListTickets handles GET /api/admin/tickets
// @Summary      List tickets
// @Description  Retrieves a paginated, role-scoped list of support tickets
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        region  query     string  false  "Filter by region (ignored for regional admins)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=[]model.SupportTicket}
// @Failure      500     {object}  response.Response
// @Router       /api/admin/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	params := pagination.Parse(c)

	tickets, total, err := h.ticketService.ListTickets(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tickets"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, tickets, params.Page, params.Limit, total))
}

// GetTicket handles GET /api/admin/tickets/:id
// @Summary      Get ticket by ID
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200  {object}  response.Response{data=model.SupportTicket}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketService.GetTicket(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// RespondTicket handles PATCH /api/admin/tickets/:id
// @Summary      Respond to a ticket
// @Description  Updates status or priority and records the admin response
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Ticket ID"
// @Param        payload  body      service.RespondTicketRequest  true  "Response Payload"
// @Success      200      {object}  response.Response{data=model.SupportTicket}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/tickets/{id} [patch]
func (h *TicketHandler) RespondTicket(c *gin.Context) {
	var req service.RespondTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.RespondTicket(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}
