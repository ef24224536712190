package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CSVImportHandler struct {
	importService service.CSVImportService
}

// NewCSVImportHandler sets up the routing dependencies for bulk import endpoints
func NewCSVImportHandler(importService service.CSVImportService) *CSVImportHandler {
	return &CSVImportHandler{importService: importService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CSVImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	csv := router.Group("/api/admin/csv")
	csv.Use(middleware.RequireRole("admin", "super-admin"))
	{
		csv.POST("/upload-url", h.UploadURL)
		csv.POST("/deals/import", h.ImportDeals)
		csv.POST("/users/import", h.ImportUsers)
	}
}

// UploadURL handles POST /api/admin/csv/upload-url
// @Summary      Get a CSV upload URL
// @Description  Issues a presigned PUT URL; the client uploads the file there, then calls the matching import endpoint with the returned object key
// @Tags         imports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UploadURLRequest  true  "Filename Payload"
// @Success      200      {object}  response.Response{data=service.UploadURLResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/csv/upload-url [post]
func (h *CSVImportHandler) UploadURL(c *gin.Context) {
	var req service.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	upload, err := h.importService.UploadURL(c.Request.Context(), req.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, upload))
}

// ImportDeals handles POST /api/admin/csv/deals/import
// @Summary      Import deals from an uploaded CSV
// @Description  Parses the uploaded file and creates a pending deal per valid row. Bad rows are reported and skipped.
// @Tags         imports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ImportRequest  true  "Object Key Payload"
// @Success      200      {object}  response.Response{data=service.ImportResult}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/csv/deals/import [post]
func (h *CSVImportHandler) ImportDeals(c *gin.Context) {
	var req service.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.importService.ImportDeals(c.Request.Context(), actorFromContext(c), req.ObjectKey)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ImportUsers handles POST /api/admin/csv/users/import
// @Summary      Import users from an uploaded CSV
// @Description  Parses the uploaded file and creates an approved participant per valid row. Duplicate registrations are reported as row errors.
// @Tags         imports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ImportRequest  true  "Object Key Payload"
// @Success      200      {object}  response.Response{data=service.ImportResult}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/csv/users/import [post]
func (h *CSVImportHandler) ImportUsers(c *gin.Context) {
	var req service.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.importService.ImportUsers(c.Request.Context(), actorFromContext(c), req.ObjectKey)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
