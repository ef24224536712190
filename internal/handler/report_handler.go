package handler

import (
	"log"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler sets up the routing dependencies for report endpoints
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/admin/reports")
	reports.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		reports.GET("/summary", h.Summary)
		reports.GET("/deals/export", h.ExportDeals)
		reports.GET("/users/export", h.ExportUsers)
		reports.GET("/redemptions/export", h.ExportRedemptions)
	}
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// writeXlsx streams a workbook as a file download.
func writeXlsx(c *gin.Context, file *excelize.File, filename string) {
	defer file.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := file.Write(c.Writer); err != nil {
		log.Println("WARNING: failed to stream export:", err)
	}
}

// Summary handles GET /api/admin/reports/summary
// @Summary      Program dashboard summary
// @Description  Aggregates deal totals, goal progress against monthly targets, points issued and redeemed, and pending queue counts per region
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Window start (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "Window end (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=model.ProgramSummary}
// @Failure      400         {object}  response.Response
// @Failure      500         {object}  response.Response
// @Router       /api/admin/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	startDate, err := parseDateQuery(c, "start_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date: expected YYYY-MM-DD"))
		return
	}
	endDate, err := parseDateQuery(c, "end_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date: expected YYYY-MM-DD"))
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), actorFromContext(c), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build summary"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ExportDeals handles GET /api/admin/reports/deals/export
// @Summary      Export deals to xlsx
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        region  query  string  false  "Filter by region (ignored for regional admins)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200     {file}  file
// @Failure      500     {object}  response.Response
// @Router       /api/admin/reports/deals/export [get]
func (h *ReportHandler) ExportDeals(c *gin.Context) {
	file, filename, err := h.reportService.ExportDeals(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export deals"))
		return
	}

	writeXlsx(c, file, filename)
}

// ExportUsers handles GET /api/admin/reports/users/export
// @Summary      Export users to xlsx
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        region  query  string  false  "Filter by region (ignored for regional admins)"
// @Success      200     {file}  file
// @Failure      500     {object}  response.Response
// @Router       /api/admin/reports/users/export [get]
func (h *ReportHandler) ExportUsers(c *gin.Context) {
	file, filename, err := h.reportService.ExportUsers(c.Request.Context(), actorFromContext(c), c.Query("region"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export users"))
		return
	}

	writeXlsx(c, file, filename)
}

// ExportRedemptions handles GET /api/admin/reports/redemptions/export
// @Summary      Export redemptions to xlsx
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        region  query  string  false  "Filter by region (ignored for regional admins)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200     {file}  file
// @Failure      500     {object}  response.Response
// @Router       /api/admin/reports/redemptions/export [get]
func (h *ReportHandler) ExportRedemptions(c *gin.Context) {
	file, filename, err := h.reportService.ExportRedemptions(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export redemptions"))
		return
	}

	writeXlsx(c, file, filename)
}
