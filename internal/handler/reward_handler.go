package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	rewardService service.RewardService
}

// NewRewardHandler sets up the routing dependencies for reward endpoints
func NewRewardHandler(rewardService service.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RewardHandler) RegisterRoutes(router *gin.RouterGroup) {
	rewards := router.Group("/api/rewards")
	rewards.Use(middleware.RequireRole("user"))
	{
		rewards.GET("", h.ListRewards)
		rewards.POST("/:id/redeem", h.Redeem)
		rewards.GET("/redemptions", h.ListMyRedemptions)
	}

	points := router.Group("/api/points")
	points.Use(middleware.RequireRole("user"))
	{
		points.GET("/history", h.MyPointsHistory)
	}

	adminRewards := router.Group("/api/admin/rewards")
	adminRewards.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		adminRewards.GET("", h.ListRewardsAdmin)
		adminRewards.GET("/:id", h.GetReward)
		adminRewards.POST("", h.CreateReward)
		adminRewards.PATCH("/:id", h.UpdateReward)
		adminRewards.DELETE("/:id", h.DeleteReward)
		adminRewards.POST("/upload-url", h.ImageUploadURL)
	}

	redemptions := router.Group("/api/admin/redemptions")
	redemptions.Use(middleware.RequireRole("admin", "regional-admin", "super-admin"))
	{
		redemptions.GET("", h.ListRedemptions)
		redemptions.POST("/:id/approve", h.ApproveRedemption)
		redemptions.POST("/:id/reject", h.RejectRedemption)
		redemptions.PATCH("/:id/shipment", h.UpdateShipment)
	}
}

// ListRewards handles GET /api/rewards for participants
// @Summary      List redeemable rewards
// @Description  Returns the active catalog visible in the caller's region plus their available points balance
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/rewards [get]
func (h *RewardHandler) ListRewards(c *gin.Context) {
	params := pagination.Parse(c)

	rewards, total, available, err := h.rewardService.ListRewards(c.Request.Context(), actorFromContext(c),
		"", true, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch rewards"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, gin.H{
		"rewards":          rewards,
		"available_points": available,
	}, params.Page, params.Limit, total))
}

// Redeem handles POST /api/rewards/:id/redeem
// @Summary      Redeem a reward
// @Description  Spends points on a reward, creating a pending redemption for admin review
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reward ID"
// @Success      201  {object}  response.Response{data=service.RedemptionResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/rewards/{id}/redeem [post]
func (h *RewardHandler) Redeem(c *gin.Context) {
	redemption, err := h.rewardService.Redeem(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, redemption))
}

// ListMyRedemptions handles GET /api/rewards/redemptions
// @Summary      List my redemptions
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.RedemptionResponse}
// @Failure      500    {object}  response.Response
// @Router       /api/rewards/redemptions [get]
func (h *RewardHandler) ListMyRedemptions(c *gin.Context) {
	params := pagination.Parse(c)

	redemptions, total, err := h.rewardService.ListMyRedemptions(c.Request.Context(), actorFromContext(c),
		params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch redemptions"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, redemptions, params.Page, params.Limit, total))
}

// MyPointsHistory handles GET /api/points/history
// @Summary      Get my points statement
// @Description  Returns the caller's available balance and signed ledger entries
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=service.PointsSummary}
// @Failure      500    {object}  response.Response
// @Router       /api/points/history [get]
func (h *RewardHandler) MyPointsHistory(c *gin.Context) {
	params := pagination.Parse(c)

	summary, err := h.rewardService.MyPointsHistory(c.Request.Context(), actorFromContext(c), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch points history"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ListRewardsAdmin handles GET /api/admin/rewards for catalog management
// @Summary      List rewards (admin)
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        region  query     string  false  "Filter by region scope"
// @Param        active  query     bool    false  "Only active rewards"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/admin/rewards [get]
func (h *RewardHandler) ListRewardsAdmin(c *gin.Context) {
	params := pagination.Parse(c)
	activeOnly := c.Query("active") == "true"

	rewards, total, _, err := h.rewardService.ListRewards(c.Request.Context(), actorFromContext(c),
		c.Query("region"), activeOnly, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch rewards"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, rewards, params.Page, params.Limit, total))
}

// GetReward handles GET /api/admin/rewards/:id
func (h *RewardHandler) GetReward(c *gin.Context) {
	reward, err := h.rewardService.GetReward(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reward))
}

// CreateReward handles POST /api/admin/rewards
// @Summary      Create a reward
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRewardRequest  true  "Reward Payload"
// @Success      201      {object}  response.Response{data=model.Reward}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/rewards [post]
func (h *RewardHandler) CreateReward(c *gin.Context) {
	var req service.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reward, err := h.rewardService.CreateReward(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reward))
}

// UpdateReward handles PATCH /api/admin/rewards/:id
// @Summary      Update a reward
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Reward ID"
// @Param        payload  body      service.UpdateRewardRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.Reward}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/rewards/{id} [patch]
func (h *RewardHandler) UpdateReward(c *gin.Context) {
	var req service.UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reward, err := h.rewardService.UpdateReward(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reward))
}

// DeleteReward handles DELETE /api/admin/rewards/:id
// @Summary      Delete reward
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reward ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/admin/rewards/{id} [delete]
func (h *RewardHandler) DeleteReward(c *gin.Context) {
	if err := h.rewardService.DeleteReward(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Reward deleted successfully"))
}

// ImageUploadURL handles POST /api/admin/rewards/upload-url
// @Summary      Get a reward image upload URL
// @Description  Issues a presigned PUT URL for uploading a catalog image
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UploadURLRequest  true  "Filename Payload"
// @Success      200      {object}  response.Response{data=service.UploadURLResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/rewards/upload-url [post]
func (h *RewardHandler) ImageUploadURL(c *gin.Context) {
	var req service.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	upload, err := h.rewardService.RewardImageUploadURL(c.Request.Context(), req.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, upload))
}

// ListRedemptions handles GET /api/admin/redemptions
// @Summary      List redemptions
// @Description  Retrieves a paginated, role-scoped list of reward redemptions
// @Tags         redemptions
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Param        region  query     string  false  "Filter by redeemer region (ignored for regional admins)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=[]service.RedemptionResponse}
// @Failure      500     {object}  response.Response
// @Router       /api/admin/redemptions [get]
func (h *RewardHandler) ListRedemptions(c *gin.Context) {
	params := pagination.Parse(c)

	redemptions, total, err := h.rewardService.ListRedemptions(c.Request.Context(), actorFromContext(c),
		c.Query("region"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch redemptions"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, redemptions, params.Page, params.Limit, total))
}

// ApproveRedemption handles POST /api/admin/redemptions/:id/approve
// @Summary      Approve a redemption
// @Tags         redemptions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Redemption ID"
// @Success      200  {object}  response.Response{data=service.RedemptionResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/admin/redemptions/{id}/approve [post]
func (h *RewardHandler) ApproveRedemption(c *gin.Context) {
	redemption, err := h.rewardService.ApproveRedemption(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, redemption))
}

// RejectRedemption handles POST /api/admin/redemptions/:id/reject
// @Summary      Reject a redemption
// @Description  Rejects a pending redemption, refunding the points and restoring stock
// @Tags         redemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Redemption ID"
// @Param        payload  body      service.RejectRedemptionRequest  true  "Rejection Reason"
// @Success      200      {object}  response.Response{data=service.RedemptionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/redemptions/{id}/reject [post]
func (h *RewardHandler) RejectRedemption(c *gin.Context) {
	var req service.RejectRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	redemption, err := h.rewardService.RejectRedemption(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, redemption))
}

// UpdateShipment handles PATCH /api/admin/redemptions/:id/shipment
// @Summary      Advance a shipment
// @Description  Moves an approved redemption one step along pending, shipped, delivered
// @Tags         redemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Redemption ID"
// @Param        payload  body      service.UpdateShipmentRequest  true  "Shipment Status Payload"
// @Success      200      {object}  response.Response{data=service.RedemptionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admin/redemptions/{id}/shipment [patch]
func (h *RewardHandler) UpdateShipment(c *gin.Context) {
	var req service.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	redemption, err := h.rewardService.UpdateShipment(c.Request.Context(), actorFromContext(c), c.Param("id"), req.ShipmentStatus)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, redemption))
}
