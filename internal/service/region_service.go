package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// validMexicoLevels are the partner tier names accepted as the first part of a
// MEXICO subcategory ("{level}" or "{level} - {city}").
var validMexicoLevels = map[string]bool{
	"PLATINUM": true,
	"GOLD":     true,
	"SILVER":   true,
	"BRONZE":   true,
}

// seedCategories are the categories created per region by the seed endpoint.
var seedCategories = []string{"ENTERPRISE", "DISTRIBUTION"}

// Fallback rates installed when no global PointsConfig row exists yet.
var (
	defaultNewCustomerGoalRate   = decimal.NewFromInt(1000)
	defaultRenewalGoalRate       = decimal.NewFromInt(2000)
	defaultNewCustomerPointsRate = decimal.NewFromInt(10)
	defaultRenewalPointsRate     = decimal.NewFromInt(20)
	defaultMonthlyGoalTarget     = decimal.NewFromInt(10)
)

// --- DTOs ---

type CreateRegionConfigRequest struct {
	Region              string          `json:"region" binding:"required,oneof=NOLA SOLA MEXICO BRAZIL"`
	Category            string          `json:"category" binding:"required"`
	Subcategory         string          `json:"subcategory"`
	NewCustomerGoalRate decimal.Decimal `json:"new_customer_goal_rate" binding:"required"`
	RenewalGoalRate     decimal.Decimal `json:"renewal_goal_rate" binding:"required"`
	MonthlyGoalTarget   decimal.Decimal `json:"monthly_goal_target"`
	RewardID            *string         `json:"reward_id"`
	ExpiresAt           *time.Time      `json:"expires_at"`
}

// UpdateRegionConfigRequest patches a config. A zero-value expires_at clears
// the expiration; an empty reward_id unlinks the reward.
type UpdateRegionConfigRequest struct {
	Category            *string          `json:"category"`
	Subcategory         *string          `json:"subcategory"`
	NewCustomerGoalRate *decimal.Decimal `json:"new_customer_goal_rate"`
	RenewalGoalRate     *decimal.Decimal `json:"renewal_goal_rate"`
	MonthlyGoalTarget   *decimal.Decimal `json:"monthly_goal_target"`
	RewardID            *string          `json:"reward_id"`
	ExpiresAt           *time.Time       `json:"expires_at"`
}

type UpdatePointsConfigRequest struct {
	NewCustomerGoalRate   *decimal.Decimal `json:"new_customer_goal_rate"`
	RenewalGoalRate       *decimal.Decimal `json:"renewal_goal_rate"`
	NewCustomerPointsRate *decimal.Decimal `json:"new_customer_points_rate"`
	RenewalPointsRate     *decimal.Decimal `json:"renewal_points_rate"`
}

type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// --- Interface ---

type RegionService interface {
	ListRegionConfigs(ctx context.Context, actor AuthContext, region, category string, activeOnly bool, page, limit int) ([]model.RegionConfig, int64, error)
	GetRegionConfig(ctx context.Context, id string) (*model.RegionConfig, error)
	CreateRegionConfig(ctx context.Context, req CreateRegionConfigRequest) (*model.RegionConfig, error)
	UpdateRegionConfig(ctx context.Context, id string, req UpdateRegionConfigRequest) (*model.RegionConfig, error)
	DeleteRegionConfig(ctx context.Context, id string) error
	SeedRegionConfigs(ctx context.Context) (*SeedResult, error)

	GetPointsConfig(ctx context.Context) (*model.PointsConfig, error)
	UpdatePointsConfig(ctx context.Context, actor AuthContext, req UpdatePointsConfigRequest) (*model.PointsConfig, error)
	EnsurePointsConfig(ctx context.Context) error
}

type regionService struct {
	regionRepo repository.RegionConfigRepository
	rewardRepo repository.RewardRepository
	pointsRepo repository.PointsRepository
}

func NewRegionService(
	regionRepo repository.RegionConfigRepository,
	rewardRepo repository.RewardRepository,
	pointsRepo repository.PointsRepository,
) RegionService {
	return &regionService{
		regionRepo: regionRepo,
		rewardRepo: rewardRepo,
		pointsRepo: pointsRepo,
	}
}

// validateSubcategory enforces the per-region naming convention. An empty
// subcategory is always allowed and addresses the whole region/category segment.
func validateSubcategory(region, subcategory string) error {
	if subcategory == "" {
		return nil
	}
	parts := strings.Split(subcategory, " - ")
	if len(parts) > 2 {
		return errors.New("subcategory may contain at most one \" - \" separator")
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return errors.New("subcategory parts cannot be empty")
		}
	}
	if region == model.RegionMexico && !validMexicoLevels[parts[0]] {
		return fmt.Errorf("unknown MEXICO partner level %q: must be PLATINUM, GOLD, SILVER or BRONZE", parts[0])
	}
	return nil
}

func (s *regionService) ListRegionConfigs(ctx context.Context, actor AuthContext, region, category string, activeOnly bool, page, limit int) ([]model.RegionConfig, int64, error) {
	configs, total, err := s.regionRepo.List(ctx, actor.ScopedRegion(region), category, activeOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch region configurations: %w", err)
	}
	return configs, total, nil
}

func (s *regionService) GetRegionConfig(ctx context.Context, id string) (*model.RegionConfig, error) {
	configID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid region configuration ID")
	}
	config, err := s.regionRepo.FindByID(ctx, configID)
	if err != nil {
		return nil, errors.New("region configuration not found")
	}
	return config, nil
}

func (s *regionService) CreateRegionConfig(ctx context.Context, req CreateRegionConfigRequest) (*model.RegionConfig, error) {
	if !validRegions[req.Region] {
		return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
	}
	if err := validateSubcategory(req.Region, req.Subcategory); err != nil {
		return nil, err
	}
	if req.NewCustomerGoalRate.LessThanOrEqual(decimal.Zero) || req.RenewalGoalRate.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("conversion rates must be greater than zero")
	}

	// Friendly pre-check; the unique index is the actual guarantee.
	if _, err := s.regionRepo.FindByTriple(ctx, req.Region, req.Category, req.Subcategory); err == nil {
		return nil, errors.New("region configuration already exists for this region, category and subcategory")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing configuration: %w", err)
	}

	config := &model.RegionConfig{
		Region:              req.Region,
		Category:            req.Category,
		Subcategory:         req.Subcategory,
		NewCustomerGoalRate: req.NewCustomerGoalRate,
		RenewalGoalRate:     req.RenewalGoalRate,
		MonthlyGoalTarget:   req.MonthlyGoalTarget,
		ExpiresAt:           req.ExpiresAt,
	}

	if req.RewardID != nil && *req.RewardID != "" {
		rewardID, err := uuid.Parse(*req.RewardID)
		if err != nil {
			return nil, errors.New("invalid reward_id")
		}
		if _, err := s.rewardRepo.FindByID(ctx, rewardID); err != nil {
			return nil, errors.New("reward_id does not reference an existing reward")
		}
		config.RewardID = &rewardID
	}

	if err := s.regionRepo.Create(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to create region configuration: %w", err)
	}
	return config, nil
}

func (s *regionService) UpdateRegionConfig(ctx context.Context, id string, req UpdateRegionConfigRequest) (*model.RegionConfig, error) {
	configID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid region configuration ID")
	}
	config, err := s.regionRepo.FindByID(ctx, configID)
	if err != nil {
		return nil, errors.New("region configuration not found")
	}

	category := config.Category
	subcategory := config.Subcategory
	if req.Category != nil {
		if *req.Category == "" {
			return nil, errors.New("category cannot be empty")
		}
		category = *req.Category
	}
	if req.Subcategory != nil {
		subcategory = *req.Subcategory
	}

	if category != config.Category || subcategory != config.Subcategory {
		if err := validateSubcategory(config.Region, subcategory); err != nil {
			return nil, err
		}
		existing, err := s.regionRepo.FindByTriple(ctx, config.Region, category, subcategory)
		if err == nil && existing.ID != config.ID {
			return nil, errors.New("region configuration already exists for this region, category and subcategory")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check for existing configuration: %w", err)
		}
	}

	config.Category = category
	config.Subcategory = subcategory

	if req.NewCustomerGoalRate != nil {
		if req.NewCustomerGoalRate.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("conversion rates must be greater than zero")
		}
		config.NewCustomerGoalRate = *req.NewCustomerGoalRate
	}
	if req.RenewalGoalRate != nil {
		if req.RenewalGoalRate.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("conversion rates must be greater than zero")
		}
		config.RenewalGoalRate = *req.RenewalGoalRate
	}
	if req.MonthlyGoalTarget != nil {
		config.MonthlyGoalTarget = *req.MonthlyGoalTarget
	}
	if req.RewardID != nil {
		if *req.RewardID == "" {
			config.RewardID = nil
			config.Reward = nil
		} else {
			rewardID, err := uuid.Parse(*req.RewardID)
			if err != nil {
				return nil, errors.New("invalid reward_id")
			}
			if _, err := s.rewardRepo.FindByID(ctx, rewardID); err != nil {
				return nil, errors.New("reward_id does not reference an existing reward")
			}
			config.RewardID = &rewardID
		}
	}
	if req.ExpiresAt != nil {
		if req.ExpiresAt.IsZero() {
			config.ExpiresAt = nil
		} else {
			config.ExpiresAt = req.ExpiresAt
		}
	}

	if err := s.regionRepo.Update(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to update region configuration: %w", err)
	}
	return config, nil
}

func (s *regionService) DeleteRegionConfig(ctx context.Context, id string) error {
	configID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid region configuration ID")
	}
	if _, err := s.regionRepo.FindByID(ctx, configID); err != nil {
		return errors.New("region configuration not found")
	}
	return s.regionRepo.Delete(ctx, configID)
}

// SeedRegionConfigs bulk-creates the default region/category grid with rates
// prefilled from the global PointsConfig. Existing triples are left untouched.
func (s *regionService) SeedRegionConfigs(ctx context.Context) (*SeedResult, error) {
	pointsConfig, err := s.pointsRepo.GetConfig(ctx)
	if err != nil {
		return nil, errors.New("points configuration is not set up")
	}

	result := &SeedResult{}
	regions := []string{model.RegionNOLA, model.RegionSOLA, model.RegionMexico, model.RegionBrazil}
	for _, region := range regions {
		for _, category := range seedCategories {
			_, err := s.regionRepo.FindByTriple(ctx, region, category, "")
			if err == nil {
				result.Skipped++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check for existing configuration: %w", err)
			}

			config := &model.RegionConfig{
				Region:              region,
				Category:            category,
				Subcategory:         "",
				NewCustomerGoalRate: pointsConfig.NewCustomerGoalRate,
				RenewalGoalRate:     pointsConfig.RenewalGoalRate,
				MonthlyGoalTarget:   defaultMonthlyGoalTarget,
			}
			if err := s.regionRepo.Create(ctx, config); err != nil {
				return nil, fmt.Errorf("failed to seed %s/%s: %w", region, category, err)
			}
			result.Created++
		}
	}
	return result, nil
}

func (s *regionService) GetPointsConfig(ctx context.Context) (*model.PointsConfig, error) {
	config, err := s.pointsRepo.GetConfig(ctx)
	if err != nil {
		return nil, errors.New("points configuration is not set up")
	}
	return config, nil
}

func (s *regionService) UpdatePointsConfig(ctx context.Context, actor AuthContext, req UpdatePointsConfigRequest) (*model.PointsConfig, error) {
	config, err := s.pointsRepo.GetConfig(ctx)
	if err != nil {
		return nil, errors.New("points configuration is not set up")
	}

	for _, rate := range []*decimal.Decimal{req.NewCustomerGoalRate, req.RenewalGoalRate, req.NewCustomerPointsRate, req.RenewalPointsRate} {
		if rate != nil && rate.LessThanOrEqual(decimal.Zero) {
			return nil, errors.New("conversion rates must be greater than zero")
		}
	}

	if req.NewCustomerGoalRate != nil {
		config.NewCustomerGoalRate = *req.NewCustomerGoalRate
	}
	if req.RenewalGoalRate != nil {
		config.RenewalGoalRate = *req.RenewalGoalRate
	}
	if req.NewCustomerPointsRate != nil {
		config.NewCustomerPointsRate = *req.NewCustomerPointsRate
	}
	if req.RenewalPointsRate != nil {
		config.RenewalPointsRate = *req.RenewalPointsRate
	}
	config.UpdatedBy = &actor.UserID

	if err := s.pointsRepo.SaveConfig(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to update points configuration: %w", err)
	}
	return config, nil
}

// EnsurePointsConfig installs the default global rate sheet on first boot.
func (s *regionService) EnsurePointsConfig(ctx context.Context) error {
	_, err := s.pointsRepo.GetConfig(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read points configuration: %w", err)
	}

	config := &model.PointsConfig{
		NewCustomerGoalRate:   defaultNewCustomerGoalRate,
		RenewalGoalRate:       defaultRenewalGoalRate,
		NewCustomerPointsRate: defaultNewCustomerPointsRate,
		RenewalPointsRate:     defaultRenewalPointsRate,
	}
	return s.pointsRepo.SaveConfig(ctx, config)
}
