package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DealHandler struct {
	dealService service.DealService
}

// NewDealHandler sets up the routing dependencies for deal endpoints
func NewDealHandler(dealService service.DealService) *DealHandler {
	return &DealHandler{dealService: dealService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DealHandler) RegisterRoutes(router *gin.RouterGroup) {
	deals := router.Group("/api/deals")
	deals.Use(middleware.RequireRole("user"))
	{
		deals.POST("", h.SubmitDeal)
		deals.GET("", h.ListMyDeals)
	}

	admin := router.Group("/api/admin/deals")
	admin.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		admin.GET("", h.ListDeals)
		admin.GET("/pending", h.ListPendingDeals)
		admin.GET("/:id", h.GetDeal)
		admin.POST("/:id/approve", h.ApproveDeal)
		admin.POST("/:id/reject", h.RejectDeal)
		admin.PATCH("/:id", h.UpdateDeal)
		admin.DELETE("/:id", h.DeleteDeal)
	}
}

// SubmitDeal handles POST /api/deals
// @Summary      Submit a deal
// @Description  Creates a pending deal for the authenticated participant
// @Tags         deals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitDealRequest  true  "Deal Payload"
// @Success      201      {object}  response.Response{data=service.DealResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/deals [post]
func (h *DealHandler) SubmitDeal(c *gin.Context) {
	var req service.SubmitDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	deal, err := h.dealService.SubmitDeal(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, deal))
}

// ListMyDeals handles GET /api/deals returning the caller's own deals
// @Summary      List my deals
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        status  query     string  false  "Filter by status: pending, approved, rejected"
// @Success      200     {object}  response.Response{data=[]service.DealResponse}
// @Failure      500     {object}  response.Response
// @Router       /api/deals [get]
func (h *DealHandler) ListMyDeals(c *gin.Context) {
	params := pagination.Parse(c)

	deals, total, err := h.dealService.ListMyDeals(c.Request.Context(), actorFromContext(c),
		c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch deals"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, deals, params.Page, params.Limit, total))
}

// ListDeals handles GET /api/admin/deals with region/status/type filters
// @Summary      List deals
// @Description  Retrieves a paginated, role-scoped list of submitted deals
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Param        region     query     string  false  "Filter by region (ignored for regional admins)"
// @Param        status     query     string  false  "Filter by status"
// @Param        deal_type  query     string  false  "Filter by type: new_customer, renewal"
// @Success      200        {object}  response.Response{data=[]service.DealResponse}
// @Failure      500        {object}  response.Response
// @Router       /api/admin/deals [get]
func (h *DealHandler) ListDeals(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.DealListFilter{
		Region:   c.Query("region"),
		Status:   c.Query("status"),
		DealType: c.Query("deal_type"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	deals, total, err := h.dealService.ListDeals(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch deals"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, deals, params.Page, params.Limit, total))
}

// ListPendingDeals handles GET /api/admin/deals/pending for the review queue
// @Summary      List deals awaiting review
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.DealResponse}
// @Router       /api/admin/deals/pending [get]
func (h *DealHandler) ListPendingDeals(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.DealListFilter{
		Region: c.Query("region"),
		Status: "pending",
		Page:   params.Page,
		Limit:  params.Limit,
	}

	deals, total, err := h.dealService.ListDeals(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch deals"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, deals, params.Page, params.Limit, total))
}

// GetDeal handles GET /api/admin/deals/:id
// @Summary      Get deal by ID
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Deal ID"
// @Success      200  {object}  response.Response{data=service.DealResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/deals/{id} [get]
func (h *DealHandler) GetDeal(c *gin.Context) {
	deal, err := h.dealService.GetDeal(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, deal))
}

// ApproveDeal handles POST /api/admin/deals/:id/approve
// @Summary      Approve a deal
// @Description  Converts the deal value into goals and points at the segment's rates and credits the submitter
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Deal ID"
// @Success      200  {object}  response.Response{data=service.DealResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/admin/deals/{id}/approve [post]
func (h *DealHandler) ApproveDeal(c *gin.Context) {
	deal, err := h.dealService.ApproveDeal(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, deal))
}

// RejectDeal handles POST /api/admin/deals/:id/reject
// @Summary      Reject a deal
// @Tags         deals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "Deal ID"
// @Param        payload  body      service.RejectDealRequest  false  "Rejection Reason"
// @Success      200      {object}  response.Response{data=service.DealResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/deals/{id}/reject [post]
func (h *DealHandler) RejectDeal(c *gin.Context) {
	// Reason is optional, so an empty body is accepted
	var req service.RejectDealRequest
	_ = c.ShouldBindJSON(&req)

	deal, err := h.dealService.RejectDeal(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, deal))
}

// UpdateDeal handles PATCH /api/admin/deals/:id
// @Summary      Update a deal
// @Description  Edits deal fields. Changing an approved deal's value does not recompute its goals or points.
// @Tags         deals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Deal ID"
// @Param        payload  body      service.UpdateDealRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=service.DealResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/deals/{id} [patch]
func (h *DealHandler) UpdateDeal(c *gin.Context) {
	var req service.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	deal, err := h.dealService.UpdateDeal(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, deal))
}

// DeleteDeal handles DELETE /api/admin/deals/:id
// @Summary      Delete deal
// @Tags         deals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Deal ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/deals/{id} [delete]
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	if err := h.dealService.DeleteDeal(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Deal deleted successfully"))
}
