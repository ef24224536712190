package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RegionHandler struct {
	regionService service.RegionService
}

// NewRegionHandler sets up the routing dependencies for region configuration endpoints
func NewRegionHandler(regionService service.RegionService) *RegionHandler {
	return &RegionHandler{regionService: regionService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RegionHandler) RegisterRoutes(router *gin.RouterGroup) {
	regions := router.Group("/api/admin/regions")
	{
		regions.GET("", middleware.RequireRole("admin", "regional-admin", "super-admin"), h.ListRegionConfigs)
		regions.GET("/:id", middleware.RequireRole("admin", "regional-admin", "super-admin"), h.GetRegionConfig)
		regions.POST("", middleware.RequireRole("admin", "super-admin"), h.CreateRegionConfig)
		regions.PATCH("/:id", middleware.RequireRole("admin", "super-admin"), h.UpdateRegionConfig)
		regions.DELETE("/:id", middleware.RequireRole("admin", "super-admin"), h.DeleteRegionConfig)
		regions.POST("/seed", middleware.RequireRole("admin", "super-admin"), h.SeedRegionConfigs)
	}

	points := router.Group("/api/admin/points-config")
	{
		points.GET("", middleware.RequireRole("admin", "regional-admin", "super-admin"), h.GetPointsConfig)
		points.PUT("", middleware.RequireRole("admin", "super-admin"), h.UpdatePointsConfig)
	}
}

// ListRegionConfigs handles GET /api/admin/regions
// @Summary      List region configurations
// @Description  Retrieves paginated region/category/subcategory rate configurations
// @Tags         regions
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Param        region    query     string  false  "Filter by region (ignored for regional admins)"
// @Param        category  query     string  false  "Filter by category"
// @Param        active    query     bool    false  "Only configurations that have not expired"
// @Success      200       {object}  response.Response{data=[]model.RegionConfig}
// @Failure      500       {object}  response.Response
// @Router       /api/admin/regions [get]
func (h *RegionHandler) ListRegionConfigs(c *gin.Context) {
	params := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"

	configs, total, err := h.regionService.ListRegionConfigs(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("category"), activeOnly, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch region configurations"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, configs, params.Page, params.Limit, total))
}

// GetRegionConfig handles GET /api/admin/regions/:id
// @Summary      Get region configuration by ID
// @Tags         regions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Region Config ID"
// @Success      200  {object}  response.Response{data=model.RegionConfig}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/regions/{id} [get]
func (h *RegionHandler) GetRegionConfig(c *gin.Context) {
	config, err := h.regionService.GetRegionConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, config))
}

// CreateRegionConfig handles POST /api/admin/regions
// @Summary      Create a region configuration
// @Description  Creates rates for a (region, category, subcategory) segment. The triple must be unique.
// @Tags         regions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRegionConfigRequest  true  "Region Config Payload"
// @Success      201      {object}  response.Response{data=model.RegionConfig}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/regions [post]
func (h *RegionHandler) CreateRegionConfig(c *gin.Context) {
	var req service.CreateRegionConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	config, err := h.regionService.CreateRegionConfig(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, config))
}

// UpdateRegionConfig handles PATCH /api/admin/regions/:id
// @Summary      Update a region configuration
// @Tags         regions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Region Config ID"
// @Param        payload  body      service.UpdateRegionConfigRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.RegionConfig}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/regions/{id} [patch]
func (h *RegionHandler) UpdateRegionConfig(c *gin.Context) {
	var req service.UpdateRegionConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	config, err := h.regionService.UpdateRegionConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, config))
}

// DeleteRegionConfig handles DELETE /api/admin/regions/:id
// @Summary      Delete region configuration
// @Tags         regions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Region Config ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/regions/{id} [delete]
func (h *RegionHandler) DeleteRegionConfig(c *gin.Context) {
	if err := h.regionService.DeleteRegionConfig(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Region configuration deleted successfully"))
}

// SeedRegionConfigs handles POST /api/admin/regions/seed
// @Summary      Seed default region configurations
// @Description  Creates the default region and category matrix with rates prefilled from the global points configuration, skipping existing segments
// @Tags         regions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SeedResult}
// @Failure      400  {object}  response.Response
// @Router       /api/admin/regions/seed [post]
func (h *RegionHandler) SeedRegionConfigs(c *gin.Context) {
	result, err := h.regionService.SeedRegionConfigs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetPointsConfig handles GET /api/admin/points-config
// @Summary      Get the global points configuration
// @Tags         regions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.PointsConfig}
// @Failure      404  {object}  response.Response
// @Router       /api/admin/points-config [get]
func (h *RegionHandler) GetPointsConfig(c *gin.Context) {
	config, err := h.regionService.GetPointsConfig(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, config))
}

// UpdatePointsConfig handles PUT /api/admin/points-config
// @Summary      Update the global points configuration
// @Description  Updates fallback goal rates and points conversion rates. Existing region configurations keep their own rates.
// @Tags         regions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdatePointsConfigRequest  true  "Points Config Payload"
// @Success      200      {object}  response.Response{data=model.PointsConfig}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/points-config [put]
func (h *RegionHandler) UpdatePointsConfig(c *gin.Context) {
	var req service.UpdatePointsConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	config, err := h.regionService.UpdatePointsConfig(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, config))
}
