package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PrizeHandler struct {
	prizeService service.PrizeService
}

// NewPrizeHandler sets up the routing dependencies for prize endpoints
func NewPrizeHandler(prizeService service.PrizeService) *PrizeHandler {
	return &PrizeHandler{prizeService: prizeService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PrizeHandler) RegisterRoutes(router *gin.RouterGroup) {
	monthly := router.Group("/api/admin/monthly-prizes")
	monthly.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		monthly.GET("", h.ListMonthlyPrizes)
		monthly.POST("", h.CreateMonthlyPrize)
		monthly.PATCH("/:id", h.UpdateMonthlyPrize)
		monthly.DELETE("/:id", h.DeleteMonthlyPrize)
	}

	grand := router.Group("/api/admin/grand-prizes")
	grand.Use(middleware.RequireRole("admin", "super-admin"))
	{
		grand.GET("", h.ListCriteria)
		grand.POST("", h.CreateCriteria)
		grand.PATCH("/:id", h.UpdateCriteria)
		grand.DELETE("/:id", h.DeleteCriteria)
		grand.POST("/:id/evaluate", h.EvaluateGrandPrize)
		grand.GET("/:id/winners", h.ListWinners)
	}
}

// ListMonthlyPrizes handles GET /api/admin/monthly-prizes
// @Summary      List monthly prizes
// @Tags         prizes
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        month   query     int     false  "Filter by month (1-12)"
// @Param        year    query     int     false  "Filter by year"
// @Param        region  query     string  false  "Filter by region (ignored for regional admins)"
// @Success      200     {object}  response.Response{data=[]model.MonthlyRegionPrize}
// @Failure      500     {object}  response.Response
// @Router       /api/admin/monthly-prizes [get]
func (h *PrizeHandler) ListMonthlyPrizes(c *gin.Context) {
	params := pagination.Parse(c)
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))

	prizes, total, err := h.prizeService.ListMonthlyPrizes(c.Request.Context(), actorFromContext(c),
		month, year, c.Query("region"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch monthly prizes"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, prizes, params.Page, params.Limit, total))
}

// CreateMonthlyPrize handles POST /api/admin/monthly-prizes
// @Summary      Create a monthly prize
// @Description  Names the prize for one rank of one region segment's month. (region, month, year, rank) must be unique.
// @Tags         prizes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMonthlyPrizeRequest  true  "Monthly Prize Payload"
// @Success      201      {object}  response.Response{data=model.MonthlyRegionPrize}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/monthly-prizes [post]
func (h *PrizeHandler) CreateMonthlyPrize(c *gin.Context) {
	var req service.CreateMonthlyPrizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	prize, err := h.prizeService.CreateMonthlyPrize(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, prize))
}

// UpdateMonthlyPrize handles PATCH /api/admin/monthly-prizes/:id
// @Summary      Update a monthly prize
// @Tags         prizes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Prize ID"
// @Param        payload  body      service.UpdateMonthlyPrizeRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.MonthlyRegionPrize}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/monthly-prizes/{id} [patch]
func (h *PrizeHandler) UpdateMonthlyPrize(c *gin.Context) {
	var req service.UpdateMonthlyPrizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	prize, err := h.prizeService.UpdateMonthlyPrize(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prize))
}

// DeleteMonthlyPrize handles DELETE /api/admin/monthly-prizes/:id
func (h *PrizeHandler) DeleteMonthlyPrize(c *gin.Context) {
	if err := h.prizeService.DeleteMonthlyPrize(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Monthly prize deleted successfully"))
}

// ListCriteria handles GET /api/admin/grand-prizes
// @Summary      List grand prize criteria
// @Tags         prizes
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]model.GrandPrizeCriteria}
// @Failure      500    {object}  response.Response
// @Router       /api/admin/grand-prizes [get]
func (h *PrizeHandler) ListCriteria(c *gin.Context) {
	params := pagination.Parse(c)

	criteria, total, err := h.prizeService.ListCriteria(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch grand prize criteria"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, criteria, params.Page, params.Limit, total))
}

// CreateCriteria handles POST /api/admin/grand-prizes
// @Summary      Create grand prize criteria
// @Description  Defines a competition window and scoring mode. Weighted criteria require points and deals weights summing to 100.
// @Tags         prizes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateGrandPrizeCriteriaRequest  true  "Criteria Payload"
// @Success      201      {object}  response.Response{data=model.GrandPrizeCriteria}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/grand-prizes [post]
func (h *PrizeHandler) CreateCriteria(c *gin.Context) {
	var req service.CreateGrandPrizeCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	criteria, err := h.prizeService.CreateCriteria(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, criteria))
}

// UpdateCriteria handles PATCH /api/admin/grand-prizes/:id
// @Summary      Update grand prize criteria
// @Tags         prizes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                   true  "Criteria ID"
// @Param        payload  body      service.UpdateGrandPrizeCriteriaRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.GrandPrizeCriteria}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/grand-prizes/{id} [patch]
func (h *PrizeHandler) UpdateCriteria(c *gin.Context) {
	var req service.UpdateGrandPrizeCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	criteria, err := h.prizeService.UpdateCriteria(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, criteria))
}

// DeleteCriteria handles DELETE /api/admin/grand-prizes/:id
func (h *PrizeHandler) DeleteCriteria(c *gin.Context) {
	if err := h.prizeService.DeleteCriteria(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Grand prize criteria deleted successfully"))
}

// EvaluateGrandPrize handles POST /api/admin/grand-prizes/:id/evaluate
// @Summary      Evaluate a grand prize
// @Description  Scores all candidates over the criteria window and persists the top-N winner snapshot, replacing any previous evaluation
// @Tags         prizes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Criteria ID"
// @Success      200  {object}  response.Response{data=[]model.GrandPrizeWinner}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/grand-prizes/{id}/evaluate [post]
func (h *PrizeHandler) EvaluateGrandPrize(c *gin.Context) {
	winners, err := h.prizeService.EvaluateGrandPrize(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, winners))
}

// ListWinners handles GET /api/admin/grand-prizes/:id/winners
// @Summary      List grand prize winners
// @Tags         prizes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Criteria ID"
// @Success      200  {object}  response.Response{data=[]model.GrandPrizeWinner}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/grand-prizes/{id}/winners [get]
func (h *PrizeHandler) ListWinners(c *gin.Context) {
	winners, err := h.prizeService.ListWinners(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, winners))
}
