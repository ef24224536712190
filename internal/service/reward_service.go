package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const uploadURLExpiry = 15 * time.Minute

// shipmentNext encodes the only legal shipment advances.
var shipmentNext = map[string]string{
	model.ShipmentPending: model.ShipmentShipped,
	model.ShipmentShipped: model.ShipmentDelivered,
}

// --- DTOs ---

type CreateRewardRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	PointsCost  decimal.Decimal `json:"points_cost" binding:"required"`
	Region      string          `json:"region"` // empty = all regions
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

type UpdateRewardRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	PointsCost  *decimal.Decimal `json:"points_cost"`
	Region      *string          `json:"region"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	Active      *bool            `json:"active"`
}

type UpdateShipmentRequest struct {
	ShipmentStatus string `json:"shipment_status" binding:"required,oneof=shipped delivered"`
}

type RejectRedemptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"uploadURL"`
	ObjectKey string `json:"objectKey"`
}

type RedemptionResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	UserName        string          `json:"user_name,omitempty"`
	RewardID        uuid.UUID       `json:"reward_id"`
	RewardName      string          `json:"reward_name,omitempty"`
	Region          string          `json:"region"`
	Status          string          `json:"status"`
	ShipmentStatus  string          `json:"shipment_status"`
	PointsSpent     decimal.Decimal `json:"points_spent"`
	ApprovedBy      *uuid.UUID      `json:"approved_by"`
	ApproverName    string          `json:"approver_name,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PointsSummary struct {
	AvailablePoints decimal.Decimal       `json:"available_points"`
	Entries         []model.PointsHistory `json:"entries"`
	Total           int64                 `json:"total"`
}

// --- Interface ---

type RewardService interface {
	ListRewards(ctx context.Context, actor AuthContext, region string, activeOnly bool, page, limit int) ([]model.Reward, int64, decimal.Decimal, error)
	GetReward(ctx context.Context, id string) (*model.Reward, error)
	CreateReward(ctx context.Context, req CreateRewardRequest) (*model.Reward, error)
	UpdateReward(ctx context.Context, id string, req UpdateRewardRequest) (*model.Reward, error)
	DeleteReward(ctx context.Context, id string) error
	RewardImageUploadURL(ctx context.Context, filename string) (*UploadURLResponse, error)

	Redeem(ctx context.Context, actor AuthContext, rewardID string) (*RedemptionResponse, error)
	ListMyRedemptions(ctx context.Context, actor AuthContext, page, limit int) ([]RedemptionResponse, int64, error)
	ListRedemptions(ctx context.Context, actor AuthContext, region, status string, page, limit int) ([]RedemptionResponse, int64, error)
	ApproveRedemption(ctx context.Context, actor AuthContext, id string) (*RedemptionResponse, error)
	RejectRedemption(ctx context.Context, actor AuthContext, id string, reason string) (*RedemptionResponse, error)
	UpdateShipment(ctx context.Context, actor AuthContext, id string, status string) (*RedemptionResponse, error)

	MyPointsHistory(ctx context.Context, actor AuthContext, page, limit int) (*PointsSummary, error)
}

type rewardService struct {
	rewardRepo repository.RewardRepository
	userRepo   repository.UserRepository
	pointsRepo repository.PointsRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	store      storage.ObjectStore
	hub        *websocket.Hub
}

func NewRewardService(
	rewardRepo repository.RewardRepository,
	userRepo repository.UserRepository,
	pointsRepo repository.PointsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.ObjectStore,
	hub *websocket.Hub,
) RewardService {
	return &rewardService{
		rewardRepo: rewardRepo,
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		store:      store,
		hub:        hub,
	}
}

func toRedemptionResponse(r *model.UserReward) *RedemptionResponse {
	res := &RedemptionResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		RewardID:        r.RewardID,
		Region:          r.Region,
		Status:          r.Status,
		ShipmentStatus:  r.ShipmentStatus,
		PointsSpent:     r.PointsSpent,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.User != nil {
		res.UserName = r.User.Name
	}
	if r.Reward != nil {
		res.RewardName = r.Reward.Name
	}
	if r.Approver != nil {
		res.ApproverName = r.Approver.Name
	}
	return res
}

// ListRewards returns the catalog plus the caller's available points.
// Plain users always see their own region's catalog; admins may filter freely.
func (s *rewardService) ListRewards(ctx context.Context, actor AuthContext, region string, activeOnly bool, page, limit int) ([]model.Reward, int64, decimal.Decimal, error) {
	if actor.Role == model.RoleUser {
		region = actor.Region
		activeOnly = true
	} else {
		region = actor.ScopedRegion(region)
	}

	rewards, total, err := s.rewardRepo.List(ctx, region, activeOnly, page, limit)
	if err != nil {
		return nil, 0, decimal.Zero, fmt.Errorf("failed to fetch rewards: %w", err)
	}

	available, err := s.pointsRepo.SumByUser(ctx, actor.UserID)
	if err != nil {
		return nil, 0, decimal.Zero, fmt.Errorf("failed to compute available points: %w", err)
	}

	return rewards, total, available, nil
}

func (s *rewardService) GetReward(ctx context.Context, id string) (*model.Reward, error) {
	rewardID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid reward ID")
	}
	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		return nil, errors.New("reward not found")
	}
	return reward, nil
}

func (s *rewardService) CreateReward(ctx context.Context, req CreateRewardRequest) (*model.Reward, error) {
	if req.PointsCost.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("points_cost must be greater than zero")
	}
	if req.Region != "" && !validRegions[req.Region] {
		return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
	}
	if req.Stock < 0 {
		return nil, errors.New("stock cannot be negative")
	}

	reward := &model.Reward{
		Name:        req.Name,
		Description: req.Description,
		PointsCost:  req.PointsCost,
		Region:      req.Region,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if err := s.rewardRepo.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}
	return reward, nil
}

func (s *rewardService) UpdateReward(ctx context.Context, id string, req UpdateRewardRequest) (*model.Reward, error) {
	rewardID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid reward ID")
	}
	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		return nil, errors.New("reward not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		reward.Name = *req.Name
	}
	if req.Description != nil {
		reward.Description = *req.Description
	}
	if req.PointsCost != nil {
		if req.PointsCost.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("points_cost must be greater than zero")
		}
		reward.PointsCost = *req.PointsCost
	}
	if req.Region != nil {
		if *req.Region != "" && !validRegions[*req.Region] {
			return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
		}
		reward.Region = *req.Region
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, errors.New("stock cannot be negative")
		}
		reward.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		reward.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		reward.Active = *req.Active
	}

	if err := s.rewardRepo.Update(ctx, reward); err != nil {
		return nil, fmt.Errorf("failed to update reward: %w", err)
	}
	return reward, nil
}

func (s *rewardService) DeleteReward(ctx context.Context, id string) error {
	rewardID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid reward ID")
	}
	if _, err := s.rewardRepo.FindByID(ctx, rewardID); err != nil {
		return errors.New("reward not found")
	}
	return s.rewardRepo.Delete(ctx, rewardID)
}

func (s *rewardService) RewardImageUploadURL(ctx context.Context, filename string) (*UploadURLResponse, error) {
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	key := "rewards/" + uuid.NewString() + "-" + path.Base(filename)
	url, err := s.store.PresignUpload(ctx, key, uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}

// Redeem runs the whole redemption inside one transaction. The user row lock
// serializes concurrent balance checks for the same user; the guarded stock
// decrement serializes the last-unit race between different users.
func (s *rewardService) Redeem(ctx context.Context, actor AuthContext, rewardID string) (*RedemptionResponse, error) {
	rid, err := uuid.Parse(rewardID)
	if err != nil {
		return nil, errors.New("invalid reward ID")
	}

	var redemption *model.UserReward
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		reward, err := s.rewardRepo.FindByID(txCtx, rid)
		if err != nil {
			return errors.New("reward not found")
		}
		if !reward.Active {
			return errors.New("reward is not available")
		}
		if reward.Region != "" && reward.Region != actor.Region {
			return errors.New("reward is not available in your region")
		}
		if reward.Stock <= 0 {
			return errors.New("reward is out of stock")
		}

		if _, err := s.userRepo.LockByID(txCtx, actor.UserID); err != nil {
			return errors.New("user not found")
		}

		open, err := s.rewardRepo.HasOpenRedemption(txCtx, actor.UserID, reward.ID)
		if err != nil {
			return fmt.Errorf("failed to check existing redemptions: %w", err)
		}
		if open {
			return errors.New("you already have a pending redemption for this reward")
		}

		available, err := s.pointsRepo.SumByUser(txCtx, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to compute available points: %w", err)
		}
		if available.LessThan(reward.PointsCost) {
			return errors.New("insufficient points")
		}

		if err := s.rewardRepo.DecrementStock(txCtx, reward.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("reward is out of stock")
			}
			return fmt.Errorf("failed to reserve stock: %w", err)
		}

		redemption = &model.UserReward{
			UserID:         actor.UserID,
			RewardID:       reward.ID,
			Region:         actor.Region,
			Status:         model.RedemptionPending,
			ShipmentStatus: model.ShipmentPending,
			PointsSpent:    reward.PointsCost,
		}
		if err := s.rewardRepo.CreateRedemption(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to create redemption: %w", err)
		}

		entry := &model.PointsHistory{
			UserID:      actor.UserID,
			Points:      reward.PointsCost.Neg(),
			EntryType:   model.PointsEntryRedemption,
			Description: "Redeemed reward: " + reward.Name,
			ReferenceID: &redemption.ID,
		}
		return s.pointsRepo.CreateEntry(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(websocket.EventRedemptionRequested, map[string]string{
		"redemption_id": redemption.ID.String(),
		"region":        redemption.Region,
	})

	loaded, loadErr := s.rewardRepo.FindRedemptionByID(ctx, redemption.ID)
	if loadErr != nil {
		return toRedemptionResponse(redemption), nil
	}
	return toRedemptionResponse(loaded), nil
}

func (s *rewardService) ListMyRedemptions(ctx context.Context, actor AuthContext, page, limit int) ([]RedemptionResponse, int64, error) {
	filter := repository.RedemptionFilter{UserID: &actor.UserID, Page: page, Limit: limit}
	return s.listRedemptions(ctx, filter)
}

func (s *rewardService) ListRedemptions(ctx context.Context, actor AuthContext, region, status string, page, limit int) ([]RedemptionResponse, int64, error) {
	filter := repository.RedemptionFilter{
		Region: actor.ScopedRegion(region),
		Status: status,
		Page:   page,
		Limit:  limit,
	}
	return s.listRedemptions(ctx, filter)
}

func (s *rewardService) listRedemptions(ctx context.Context, filter repository.RedemptionFilter) ([]RedemptionResponse, int64, error) {
	redemptions, total, err := s.rewardRepo.ListRedemptions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch redemptions: %w", err)
	}
	res := make([]RedemptionResponse, 0, len(redemptions))
	for i := range redemptions {
		res = append(res, *toRedemptionResponse(&redemptions[i]))
	}
	return res, total, nil
}

func (s *rewardService) ApproveRedemption(ctx context.Context, actor AuthContext, id string) (*RedemptionResponse, error) {
	redemptionID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid redemption ID")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		redemption, err := s.rewardRepo.FindRedemptionByIDForUpdate(txCtx, redemptionID)
		if err != nil {
			return errors.New("redemption not found")
		}
		if redemption.Status != model.RedemptionPending {
			return fmt.Errorf("redemption is already %s", redemption.Status)
		}
		if actor.Role == model.RoleRegionalAdmin && redemption.Region != actor.Region {
			return errors.New("access denied: redemption belongs to another region")
		}

		now := time.Now()
		redemption.Status = model.RedemptionApproved
		redemption.ApprovedBy = &actor.UserID
		redemption.ApprovedAt = &now

		if err := s.rewardRepo.UpdateRedemption(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to update redemption: %w", err)
		}

		audit := &model.AuditLog{
			UserID:   &actor.UserID,
			Action:   model.ActionApproveRedemption,
			EntityID: redemption.ID.String(),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	loaded, loadErr := s.rewardRepo.FindRedemptionByID(ctx, redemptionID)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to reload redemption: %w", loadErr)
	}
	return toRedemptionResponse(loaded), nil
}

// RejectRedemption refunds the spent points and returns the unit to stock, all
// in the same transaction as the status change.
func (s *rewardService) RejectRedemption(ctx context.Context, actor AuthContext, id string, reason string) (*RedemptionResponse, error) {
	redemptionID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid redemption ID")
	}
	if reason == "" {
		return nil, errors.New("a rejection reason is required")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		redemption, err := s.rewardRepo.FindRedemptionByIDForUpdate(txCtx, redemptionID)
		if err != nil {
			return errors.New("redemption not found")
		}
		if redemption.Status != model.RedemptionPending {
			return fmt.Errorf("redemption is already %s", redemption.Status)
		}
		if actor.Role == model.RoleRegionalAdmin && redemption.Region != actor.Region {
			return errors.New("access denied: redemption belongs to another region")
		}

		now := time.Now()
		redemption.Status = model.RedemptionRejected
		redemption.ApprovedBy = &actor.UserID
		redemption.ApprovedAt = &now
		redemption.RejectionReason = reason

		if err := s.rewardRepo.UpdateRedemption(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to update redemption: %w", err)
		}

		entry := &model.PointsHistory{
			UserID:      redemption.UserID,
			Points:      redemption.PointsSpent,
			EntryType:   model.PointsEntryRedemptionRefund,
			Description: "Refund for rejected redemption",
			ReferenceID: &redemption.ID,
		}
		if err := s.pointsRepo.CreateEntry(txCtx, entry); err != nil {
			return fmt.Errorf("failed to refund points: %w", err)
		}

		if err := s.rewardRepo.IncrementStock(txCtx, redemption.RewardID); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"reason": reason})
		audit := &model.AuditLog{
			UserID:   &actor.UserID,
			Action:   model.ActionRejectRedemption,
			EntityID: redemption.ID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	loaded, loadErr := s.rewardRepo.FindRedemptionByID(ctx, redemptionID)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to reload redemption: %w", loadErr)
	}
	return toRedemptionResponse(loaded), nil
}

// UpdateShipment advances the shipment status one step forward. Reaching
// delivered also closes the redemption itself.
func (s *rewardService) UpdateShipment(ctx context.Context, actor AuthContext, id string, status string) (*RedemptionResponse, error) {
	redemptionID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid redemption ID")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		redemption, err := s.rewardRepo.FindRedemptionByIDForUpdate(txCtx, redemptionID)
		if err != nil {
			return errors.New("redemption not found")
		}
		if redemption.Status != model.RedemptionApproved {
			return errors.New("only approved redemptions can be shipped")
		}
		if actor.Role == model.RoleRegionalAdmin && redemption.Region != actor.Region {
			return errors.New("access denied: redemption belongs to another region")
		}
		if shipmentNext[redemption.ShipmentStatus] != status {
			return fmt.Errorf("invalid shipment transition: %s to %s", redemption.ShipmentStatus, status)
		}

		redemption.ShipmentStatus = status
		if status == model.ShipmentDelivered {
			redemption.Status = model.RedemptionDelivered
		}

		if err := s.rewardRepo.UpdateRedemption(txCtx, redemption); err != nil {
			return fmt.Errorf("failed to update shipment: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"shipment_status": status})
		audit := &model.AuditLog{
			UserID:   &actor.UserID,
			Action:   model.ActionUpdateShipment,
			EntityID: redemption.ID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	loaded, loadErr := s.rewardRepo.FindRedemptionByID(ctx, redemptionID)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to reload redemption: %w", loadErr)
	}
	return toRedemptionResponse(loaded), nil
}

func (s *rewardService) MyPointsHistory(ctx context.Context, actor AuthContext, page, limit int) (*PointsSummary, error) {
	available, err := s.pointsRepo.SumByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute available points: %w", err)
	}
	entries, total, err := s.pointsRepo.ListByUser(ctx, actor.UserID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch points history: %w", err)
	}
	return &PointsSummary{AvailablePoints: available, Entries: entries, Total: total}, nil
}
