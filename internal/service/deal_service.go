package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type SubmitDealRequest struct {
	CustomerName   string          `json:"customer_name" binding:"required"`
	Description    string          `json:"description"`
	DealValue      decimal.Decimal `json:"deal_value" binding:"required"`
	DealType       string          `json:"deal_type" binding:"required,oneof=new_customer renewal"`
	RegionConfigID *string         `json:"region_config_id"`
}

type UpdateDealRequest struct {
	CustomerName   *string          `json:"customer_name"`
	Description    *string          `json:"description"`
	DealValue      *decimal.Decimal `json:"deal_value"`
	DealType       *string          `json:"deal_type"`
	Region         *string          `json:"region"`
	RegionConfigID *string          `json:"region_config_id"`
}

type RejectDealRequest struct {
	Reason string `json:"reason"`
}

type DealResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	UserName        string          `json:"user_name,omitempty"`
	RegionConfigID  *uuid.UUID      `json:"region_config_id"`
	Region          string          `json:"region"`
	CustomerName    string          `json:"customer_name"`
	Description     string          `json:"description"`
	DealValue       decimal.Decimal `json:"deal_value"`
	DealType        string          `json:"deal_type"`
	Status          string          `json:"status"`
	GoalsEarned     decimal.Decimal `json:"goals_earned"`
	PointsEarned    decimal.Decimal `json:"points_earned"`
	ApprovedBy      *uuid.UUID      `json:"approved_by"`
	ApproverName    string          `json:"approver_name,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DealListFilter mirrors the admin list query parameters.
type DealListFilter struct {
	Region   string
	Status   string
	DealType string
	Page     int
	Limit    int
}

// --- Interface ---

type DealService interface {
	SubmitDeal(ctx context.Context, actor AuthContext, req SubmitDealRequest) (*DealResponse, error)
	ListMyDeals(ctx context.Context, actor AuthContext, status string, page, limit int) ([]DealResponse, int64, error)
	ListDeals(ctx context.Context, actor AuthContext, filter DealListFilter) ([]DealResponse, int64, error)
	GetDeal(ctx context.Context, actor AuthContext, id string) (*DealResponse, error)
	ApproveDeal(ctx context.Context, actor AuthContext, id string) (*DealResponse, error)
	RejectDeal(ctx context.Context, actor AuthContext, id string, reason string) (*DealResponse, error)
	UpdateDeal(ctx context.Context, actor AuthContext, id string, req UpdateDealRequest) (*DealResponse, error)
	DeleteDeal(ctx context.Context, actor AuthContext, id string) error
}

type dealService struct {
	dealRepo   repository.DealRepository
	userRepo   repository.UserRepository
	regionRepo repository.RegionConfigRepository
	pointsRepo repository.PointsRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *websocket.Hub
}

func NewDealService(
	dealRepo repository.DealRepository,
	userRepo repository.UserRepository,
	regionRepo repository.RegionConfigRepository,
	pointsRepo repository.PointsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) DealService {
	return &dealService{
		dealRepo:   dealRepo,
		userRepo:   userRepo,
		regionRepo: regionRepo,
		pointsRepo: pointsRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

func toDealResponse(d *model.Deal) *DealResponse {
	res := &DealResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		RegionConfigID:  d.RegionConfigID,
		Region:          d.Region,
		CustomerName:    d.CustomerName,
		Description:     d.Description,
		DealValue:       d.DealValue,
		DealType:        d.DealType,
		Status:          d.Status,
		GoalsEarned:     d.GoalsEarned,
		PointsEarned:    d.PointsEarned,
		ApprovedBy:      d.ApprovedBy,
		ApprovedAt:      d.ApprovedAt,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.User != nil {
		res.UserName = d.User.Name
	}
	if d.Approver != nil {
		res.ApproverName = d.Approver.Name
	}
	return res
}

func (s *dealService) SubmitDeal(ctx context.Context, actor AuthContext, req SubmitDealRequest) (*DealResponse, error) {
	if req.DealValue.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("deal_value must be greater than zero")
	}

	deal := &model.Deal{
		UserID:       actor.UserID,
		Region:       actor.Region,
		CustomerName: req.CustomerName,
		Description:  req.Description,
		DealValue:    req.DealValue,
		DealType:     req.DealType,
		Status:       model.DealStatusPending,
		GoalsEarned:  decimal.Zero,
		PointsEarned: decimal.Zero,
	}

	if req.RegionConfigID != nil && *req.RegionConfigID != "" {
		configID, err := uuid.Parse(*req.RegionConfigID)
		if err != nil {
			return nil, errors.New("invalid region_config_id")
		}
		config, err := s.regionRepo.FindByID(ctx, configID)
		if err != nil {
			return nil, errors.New("region_config_id does not reference an existing region configuration")
		}
		deal.RegionConfigID = &config.ID
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to submit deal: %w", err)
	}

	s.hub.BroadcastEvent(websocket.EventDealSubmitted, map[string]string{
		"deal_id":       deal.ID.String(),
		"region":        deal.Region,
		"customer_name": deal.CustomerName,
	})

	return toDealResponse(deal), nil
}

func (s *dealService) ListMyDeals(ctx context.Context, actor AuthContext, status string, page, limit int) ([]DealResponse, int64, error) {
	filter := repository.DealFilter{
		Status: status,
		UserID: &actor.UserID,
		Page:   page,
		Limit:  limit,
	}
	return s.listWithFilter(ctx, filter)
}

func (s *dealService) ListDeals(ctx context.Context, actor AuthContext, filter DealListFilter) ([]DealResponse, int64, error) {
	repoFilter := repository.DealFilter{
		Region:   actor.ScopedRegion(filter.Region),
		Status:   filter.Status,
		DealType: filter.DealType,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	return s.listWithFilter(ctx, repoFilter)
}

func (s *dealService) listWithFilter(ctx context.Context, filter repository.DealFilter) ([]DealResponse, int64, error) {
	deals, total, err := s.dealRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch deals: %w", err)
	}

	res := make([]DealResponse, 0, len(deals))
	for i := range deals {
		res = append(res, *toDealResponse(&deals[i]))
	}
	return res, total, nil
}

func (s *dealService) GetDeal(ctx context.Context, actor AuthContext, id string) (*DealResponse, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid deal ID")
	}

	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, errors.New("deal not found")
	}

	if !actor.IsAdmin() && deal.UserID != actor.UserID {
		return nil, errors.New("access denied")
	}
	if actor.Role == model.RoleRegionalAdmin && deal.Region != actor.Region {
		return nil, errors.New("access denied: deal belongs to another region")
	}

	return toDealResponse(deal), nil
}

// resolveRates returns the goal and points divisors for a deal. The goal rate
// comes from the deal's RegionConfig when one is set and still active,
// otherwise from the global defaults. Points rates are always global.
func (s *dealService) resolveRates(ctx context.Context, deal *model.Deal) (decimal.Decimal, decimal.Decimal, error) {
	config, err := s.pointsRepo.GetConfig(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.New("points configuration is not set up")
	}

	var goalRate, pointsRate decimal.Decimal
	switch deal.DealType {
	case model.DealTypeNewCustomer:
		goalRate = config.NewCustomerGoalRate
		pointsRate = config.NewCustomerPointsRate
	case model.DealTypeRenewal:
		goalRate = config.RenewalGoalRate
		pointsRate = config.RenewalPointsRate
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("unknown deal type %q", deal.DealType)
	}

	if deal.RegionConfigID != nil {
		regionConfig, err := s.regionRepo.FindByID(ctx, *deal.RegionConfigID)
		// A deleted or expired config falls back to the global rates
		if err == nil && regionConfig.IsActive(time.Now()) {
			if deal.DealType == model.DealTypeNewCustomer {
				goalRate = regionConfig.NewCustomerGoalRate
			} else {
				goalRate = regionConfig.RenewalGoalRate
			}
		}
	}

	if goalRate.LessThanOrEqual(decimal.Zero) || pointsRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, errors.New("conversion rates must be greater than zero")
	}

	return goalRate, pointsRate, nil
}

func (s *dealService) ApproveDeal(ctx context.Context, actor AuthContext, id string) (*DealResponse, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid deal ID")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deal, err := s.dealRepo.FindByIDForUpdate(txCtx, dealID)
		if err != nil {
			return errors.New("deal not found")
		}

		if deal.Status != model.DealStatusPending {
			return fmt.Errorf("deal is already %s", deal.Status)
		}
		if actor.Role == model.RoleRegionalAdmin && deal.Region != actor.Region {
			return errors.New("access denied: deal belongs to another region")
		}

		goalRate, pointsRate, err := s.resolveRates(txCtx, deal)
		if err != nil {
			return err
		}

		now := time.Now()
		deal.GoalsEarned = deal.DealValue.Div(goalRate)
		deal.PointsEarned = deal.DealValue.Div(pointsRate)
		deal.Status = model.DealStatusApproved
		deal.ApprovedBy = &actor.UserID
		deal.ApprovedAt = &now

		if err := s.dealRepo.Update(txCtx, deal); err != nil {
			return fmt.Errorf("failed to update deal: %w", err)
		}

		entry := &model.PointsHistory{
			UserID:      deal.UserID,
			Points:      deal.PointsEarned,
			EntryType:   model.PointsEntryDealApproval,
			Description: "Deal approved: " + deal.CustomerName,
			ReferenceID: &deal.ID,
		}
		if err := s.pointsRepo.CreateEntry(txCtx, entry); err != nil {
			return fmt.Errorf("failed to credit points: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"deal_value":    deal.DealValue,
			"goals_earned":  deal.GoalsEarned,
			"points_earned": deal.PointsEarned,
		})
		audit := &model.AuditLog{
			UserID:     &actor.UserID,
			Action:     model.ActionApproveDeal,
			EntityID:   deal.ID.String(),
			EntityName: deal.CustomerName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with relations after commit
	deal, loadErr := s.dealRepo.FindByID(ctx, dealID)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to reload deal: %w", loadErr)
	}

	s.hub.BroadcastEvent(websocket.EventDealApproved, map[string]string{
		"deal_id": deal.ID.String(),
		"region":  deal.Region,
	})

	return toDealResponse(deal), nil
}

func (s *dealService) RejectDeal(ctx context.Context, actor AuthContext, id string, reason string) (*DealResponse, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid deal ID")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deal, err := s.dealRepo.FindByIDForUpdate(txCtx, dealID)
		if err != nil {
			return errors.New("deal not found")
		}

		if deal.Status != model.DealStatusPending {
			return fmt.Errorf("deal is already %s", deal.Status)
		}
		if actor.Role == model.RoleRegionalAdmin && deal.Region != actor.Region {
			return errors.New("access denied: deal belongs to another region")
		}

		now := time.Now()
		deal.Status = model.DealStatusRejected
		deal.ApprovedBy = &actor.UserID
		deal.ApprovedAt = &now
		deal.RejectionReason = reason

		if err := s.dealRepo.Update(txCtx, deal); err != nil {
			return fmt.Errorf("failed to update deal: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"reason": reason})
		audit := &model.AuditLog{
			UserID:     &actor.UserID,
			Action:     model.ActionRejectDeal,
			EntityID:   deal.ID.String(),
			EntityName: deal.CustomerName,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	deal, loadErr := s.dealRepo.FindByID(ctx, dealID)
	if loadErr != nil {
		return nil, fmt.Errorf("failed to reload deal: %w", loadErr)
	}

	s.hub.BroadcastEvent(websocket.EventDealRejected, map[string]string{
		"deal_id": deal.ID.String(),
		"region":  deal.Region,
	})

	return toDealResponse(deal), nil
}

// UpdateDeal applies admin edits to any field. Changing the value of an
// already-approved deal does NOT recompute goals or points: the conversion ran
// once at approval time and its output stands until a deliberate re-approval
// workflow exists.
func (s *dealService) UpdateDeal(ctx context.Context, actor AuthContext, id string, req UpdateDealRequest) (*DealResponse, error) {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid deal ID")
	}

	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, errors.New("deal not found")
	}
	if actor.Role == model.RoleRegionalAdmin && deal.Region != actor.Region {
		return nil, errors.New("access denied: deal belongs to another region")
	}

	if req.CustomerName != nil {
		if *req.CustomerName == "" {
			return nil, errors.New("customer_name cannot be empty")
		}
		deal.CustomerName = *req.CustomerName
	}
	if req.Description != nil {
		deal.Description = *req.Description
	}
	if req.DealValue != nil {
		if req.DealValue.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("deal_value must be greater than zero")
		}
		deal.DealValue = *req.DealValue
	}
	if req.DealType != nil {
		if *req.DealType != model.DealTypeNewCustomer && *req.DealType != model.DealTypeRenewal {
			return nil, errors.New("deal_type must be new_customer or renewal")
		}
		deal.DealType = *req.DealType
	}
	if req.Region != nil {
		if !validRegions[*req.Region] {
			return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
		}
		deal.Region = *req.Region
	}
	if req.RegionConfigID != nil {
		if *req.RegionConfigID == "" {
			deal.RegionConfigID = nil
			deal.RegionConfig = nil
		} else {
			configID, err := uuid.Parse(*req.RegionConfigID)
			if err != nil {
				return nil, errors.New("invalid region_config_id")
			}
			if _, err := s.regionRepo.FindByID(ctx, configID); err != nil {
				return nil, errors.New("region_config_id does not reference an existing region configuration")
			}
			deal.RegionConfigID = &configID
		}
	}

	if err := s.dealRepo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	updated, loadErr := s.dealRepo.FindByID(ctx, dealID)
	if loadErr != nil {
		return toDealResponse(deal), nil
	}
	return toDealResponse(updated), nil
}

func (s *dealService) DeleteDeal(ctx context.Context, actor AuthContext, id string) error {
	dealID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid deal ID")
	}
	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return errors.New("deal not found")
	}
	if actor.Role == model.RoleRegionalAdmin && deal.Region != actor.Region {
		return errors.New("access denied: deal belongs to another region")
	}
	return s.dealRepo.Delete(ctx, dealID)
}
