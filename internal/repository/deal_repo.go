package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DealFilter narrows deal listings. Zero values mean "no filter";
// a regional-admin's region is forced into Region by the service layer.
type DealFilter struct {
	Region   string
	Status   string
	DealType string
	UserID   *uuid.UUID
	Page     int
	Limit    int
}

type DealRepository interface {
	Create(ctx context.Context, deal *model.Deal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Deal, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Deal, error)
	Update(ctx context.Context, deal *model.Deal) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter DealFilter) ([]model.Deal, int64, error)
}

type dealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) DealRepository {
	return &dealRepository{db: db}
}

func (r *dealRepository) Create(ctx context.Context, deal *model.Deal) error {
	return GetDB(ctx, r.db).Create(deal).Error
}

func (r *dealRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	var deal model.Deal
	if err := GetDB(ctx, r.db).
		Preload("User").
		Preload("RegionConfig").
		Preload("Approver").
		First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindByIDForUpdate loads the deal with a row lock so concurrent status
// transitions serialize. Only meaningful inside RunInTx.
func (r *dealRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	var deal model.Deal
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *dealRepository) Update(ctx context.Context, deal *model.Deal) error {
	return GetDB(ctx, r.db).Save(deal).Error
}

func (r *dealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Deal{}).Error
}

func (r *dealRepository) List(ctx context.Context, filter DealFilter) ([]model.Deal, int64, error) {
	var deals []model.Deal
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Region != "" {
			q = q.Where("region = ?", filter.Region)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.DealType != "" {
			q = q.Where("deal_type = ?", filter.DealType)
		}
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		return q
	}

	if err := apply(db.Model(&model.Deal{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := apply(db.Preload("User").Preload("RegionConfig").Preload("Approver")).
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&deals).Error; err != nil {
		return nil, 0, err
	}

	return deals, total, nil
}
