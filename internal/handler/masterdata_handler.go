package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MasterDataHandler struct {
	masterDataService service.MasterDataService
}

// NewMasterDataHandler sets up the routing dependencies for master data endpoints
func NewMasterDataHandler(masterDataService service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{masterDataService: masterDataService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *MasterDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	guard := middleware.RequireRole("admin", "super-admin")

	categories := router.Group("/api/admin/categories-master")
	categories.Use(guard)
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.PATCH("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
		categories.PUT("/:id/toggle", h.ToggleCategory)
	}

	regionCategories := router.Group("/api/admin/region-categories")
	regionCategories.Use(guard)
	{
		regionCategories.GET("", h.ListRegionCategories)
		regionCategories.POST("", h.CreateRegionCategory)
		regionCategories.PATCH("/:id", h.UpdateRegionCategory)
		regionCategories.DELETE("/:id", h.DeleteRegionCategory)
		regionCategories.PUT("/:id/toggle", h.ToggleRegionCategory)
	}

	prizeTemplates := router.Group("/api/admin/prize-templates")
	prizeTemplates.Use(guard)
	{
		prizeTemplates.GET("", h.ListPrizeTemplates)
		prizeTemplates.POST("", h.CreatePrizeTemplate)
		prizeTemplates.PATCH("/:id", h.UpdatePrizeTemplate)
		prizeTemplates.DELETE("/:id", h.DeletePrizeTemplate)
		prizeTemplates.PUT("/:id/toggle", h.TogglePrizeTemplate)
	}

	productTypes := router.Group("/api/admin/product-types")
	productTypes.Use(guard)
	{
		productTypes.GET("", h.ListProductTypes)
		productTypes.POST("", h.CreateProductType)
		productTypes.PATCH("/:id", h.UpdateProductType)
		productTypes.DELETE("/:id", h.DeleteProductType)
		productTypes.PUT("/:id/toggle", h.ToggleProductType)
	}
}

// --- Categories master ---

// ListCategories handles GET /api/admin/categories-master
// @Summary      List master categories
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active entries"
// @Success      200     {object}  response.Response{data=[]model.CategoryMaster}
// @Router       /api/admin/categories-master [get]
func (h *MasterDataHandler) ListCategories(c *gin.Context) {
	categories, err := h.masterDataService.ListCategories(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch categories"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// CreateCategory handles POST /api/admin/categories-master
// @Summary      Create a master category
// @Tags         master-data
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCategoryMasterRequest  true  "Category Payload"
// @Success      201      {object}  response.Response{data=model.CategoryMaster}
// @Failure      409      {object}  response.Response
// @Router       /api/admin/categories-master [post]
func (h *MasterDataHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.masterDataService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory handles PATCH /api/admin/categories-master/:id
func (h *MasterDataHandler) UpdateCategory(c *gin.Context) {
	var req service.UpdateCategoryMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.masterDataService.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory handles DELETE /api/admin/categories-master/:id
func (h *MasterDataHandler) DeleteCategory(c *gin.Context) {
	if err := h.masterDataService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Category deleted successfully"))
}

// ToggleCategory handles PUT /api/admin/categories-master/:id/toggle
func (h *MasterDataHandler) ToggleCategory(c *gin.Context) {
	category, err := h.masterDataService.ToggleCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// --- Region categories ---

// ListRegionCategories handles GET /api/admin/region-categories
// @Summary      List region category mappings
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        region  query     string  false  "Filter by region"
// @Param        active  query     bool    false  "Only active entries"
// @Success      200     {object}  response.Response{data=[]model.RegionCategory}
// @Router       /api/admin/region-categories [get]
func (h *MasterDataHandler) ListRegionCategories(c *gin.Context) {
	mappings, err := h.masterDataService.ListRegionCategories(c.Request.Context(), c.Query("region"), c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch region categories"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, mappings))
}

// CreateRegionCategory handles POST /api/admin/region-categories
func (h *MasterDataHandler) CreateRegionCategory(c *gin.Context) {
	var req service.CreateRegionCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	mapping, err := h.masterDataService.CreateRegionCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, mapping))
}

// UpdateRegionCategory handles PATCH /api/admin/region-categories/:id
func (h *MasterDataHandler) UpdateRegionCategory(c *gin.Context) {
	var req service.UpdateRegionCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	mapping, err := h.masterDataService.UpdateRegionCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, mapping))
}

// DeleteRegionCategory handles DELETE /api/admin/region-categories/:id
func (h *MasterDataHandler) DeleteRegionCategory(c *gin.Context) {
	if err := h.masterDataService.DeleteRegionCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Region category deleted successfully"))
}

// ToggleRegionCategory handles PUT /api/admin/region-categories/:id/toggle
func (h *MasterDataHandler) ToggleRegionCategory(c *gin.Context) {
	mapping, err := h.masterDataService.ToggleRegionCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, mapping))
}

// --- Prize templates ---

// ListPrizeTemplates handles GET /api/admin/prize-templates
// @Summary      List prize templates
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active entries"
// @Success      200     {object}  response.Response{data=[]model.PrizeTemplate}
// @Router       /api/admin/prize-templates [get]
func (h *MasterDataHandler) ListPrizeTemplates(c *gin.Context) {
	templates, err := h.masterDataService.ListPrizeTemplates(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch prize templates"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, templates))
}

// CreatePrizeTemplate handles POST /api/admin/prize-templates
func (h *MasterDataHandler) CreatePrizeTemplate(c *gin.Context) {
	var req service.CreatePrizeTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	template, err := h.masterDataService.CreatePrizeTemplate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, template))
}

// UpdatePrizeTemplate handles PATCH /api/admin/prize-templates/:id
func (h *MasterDataHandler) UpdatePrizeTemplate(c *gin.Context) {
	var req service.UpdatePrizeTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	template, err := h.masterDataService.UpdatePrizeTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// DeletePrizeTemplate handles DELETE /api/admin/prize-templates/:id
func (h *MasterDataHandler) DeletePrizeTemplate(c *gin.Context) {
	if err := h.masterDataService.DeletePrizeTemplate(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Prize template deleted successfully"))
}

// TogglePrizeTemplate handles PUT /api/admin/prize-templates/:id/toggle
func (h *MasterDataHandler) TogglePrizeTemplate(c *gin.Context) {
	template, err := h.masterDataService.TogglePrizeTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, template))
}

// --- Product types ---

// ListProductTypes handles GET /api/admin/product-types
// @Summary      List product types
// @Tags         master-data
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active entries"
// @Success      200     {object}  response.Response{data=[]model.ProductType}
// @Router       /api/admin/product-types [get]
func (h *MasterDataHandler) ListProductTypes(c *gin.Context) {
	types, err := h.masterDataService.ListProductTypes(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch product types"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, types))
}

// CreateProductType handles POST /api/admin/product-types
func (h *MasterDataHandler) CreateProductType(c *gin.Context) {
	var req service.CreateProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productType, err := h.masterDataService.CreateProductType(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, productType))
}

// UpdateProductType handles PATCH /api/admin/product-types/:id
func (h *MasterDataHandler) UpdateProductType(c *gin.Context) {
	var req service.UpdateProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	productType, err := h.masterDataService.UpdateProductType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, productType))
}

// DeleteProductType handles DELETE /api/admin/product-types/:id
func (h *MasterDataHandler) DeleteProductType(c *gin.Context) {
	if err := h.masterDataService.DeleteProductType(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product type deleted successfully"))
}

// ToggleProductType handles PUT /api/admin/product-types/:id/toggle
func (h *MasterDataHandler) ToggleProductType(c *gin.Context) {
	productType, err := h.masterDataService.ToggleProductType(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, productType))
}
