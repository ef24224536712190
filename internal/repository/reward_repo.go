package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedemptionFilter narrows UserReward listings.
type RedemptionFilter struct {
	Region string
	Status string
	UserID *uuid.UUID
	Page   int
	Limit  int
}

type RewardRepository interface {
	Create(ctx context.Context, reward *model.Reward) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error)
	Update(ctx context.Context, reward *model.Reward) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, region string, activeOnly bool, page, limit int) ([]model.Reward, int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID) error
	IncrementStock(ctx context.Context, id uuid.UUID) error

	CreateRedemption(ctx context.Context, redemption *model.UserReward) error
	FindRedemptionByID(ctx context.Context, id uuid.UUID) (*model.UserReward, error)
	FindRedemptionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserReward, error)
	UpdateRedemption(ctx context.Context, redemption *model.UserReward) error
	ListRedemptions(ctx context.Context, filter RedemptionFilter) ([]model.UserReward, int64, error)
	HasOpenRedemption(ctx context.Context, userID, rewardID uuid.UUID) (bool, error)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Create(ctx context.Context, reward *model.Reward) error {
	return GetDB(ctx, r.db).Create(reward).Error
}

func (r *rewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	var reward model.Reward
	if err := GetDB(ctx, r.db).First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *rewardRepository) Update(ctx context.Context, reward *model.Reward) error {
	return GetDB(ctx, r.db).Save(reward).Error
}

func (r *rewardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Reward{}).Error
}

// List returns catalog items. An empty reward region means "all regions", so a
// region filter keeps both exact matches and unscoped rewards.
func (r *rewardRepository) List(ctx context.Context, region string, activeOnly bool, page, limit int) ([]model.Reward, int64, error) {
	var rewards []model.Reward
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if region != "" {
			q = q.Where("region = ? OR region = ''", region)
		}
		if activeOnly {
			q = q.Where("active = true")
		}
		return q
	}

	if err := apply(db.Model(&model.Reward{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.Reward{})).
		Order("points_cost ASC").Offset(offset).Limit(limit).Find(&rewards).Error; err != nil {
		return nil, 0, err
	}

	return rewards, total, nil
}

// DecrementStock atomically takes one unit; gorm.ErrRecordNotFound means none left.
func (r *rewardRepository) DecrementStock(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.Reward{}).
		Where("id = ? AND stock > 0", id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *rewardRepository) IncrementStock(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Reward{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + 1")).Error
}

func (r *rewardRepository) CreateRedemption(ctx context.Context, redemption *model.UserReward) error {
	return GetDB(ctx, r.db).Create(redemption).Error
}

func (r *rewardRepository) FindRedemptionByID(ctx context.Context, id uuid.UUID) (*model.UserReward, error) {
	var redemption model.UserReward
	if err := GetDB(ctx, r.db).
		Preload("User").
		Preload("Reward").
		Preload("Approver").
		First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

// FindRedemptionByIDForUpdate loads the redemption with a row lock so
// concurrent review and shipment transitions serialize.
func (r *rewardRepository) FindRedemptionByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.UserReward, error) {
	var redemption model.UserReward
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *rewardRepository) UpdateRedemption(ctx context.Context, redemption *model.UserReward) error {
	return GetDB(ctx, r.db).Save(redemption).Error
}

func (r *rewardRepository) ListRedemptions(ctx context.Context, filter RedemptionFilter) ([]model.UserReward, int64, error) {
	var redemptions []model.UserReward
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Region != "" {
			q = q.Where("region = ?", filter.Region)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		return q
	}

	if err := apply(db.Model(&model.UserReward{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("User").Preload("Reward").Preload("Approver")).
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}

	return redemptions, total, nil
}

// HasOpenRedemption reports whether the user already holds a pending or
// approved redemption of this reward.
func (r *rewardRepository) HasOpenRedemption(ctx context.Context, userID, rewardID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UserReward{}).
		Where("user_id = ? AND reward_id = ? AND status IN ?",
			userID, rewardID, []string{model.RedemptionPending, model.RedemptionApproved}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
