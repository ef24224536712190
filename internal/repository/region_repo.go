package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegionConfigRepository interface {
	Create(ctx context.Context, config *model.RegionConfig) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RegionConfig, error)
	FindByTriple(ctx context.Context, region, category, subcategory string) (*model.RegionConfig, error)
	Update(ctx context.Context, config *model.RegionConfig) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, region, category string, activeOnly bool, page, limit int) ([]model.RegionConfig, int64, error)
}

type regionConfigRepository struct {
	db *gorm.DB
}

func NewRegionConfigRepository(db *gorm.DB) RegionConfigRepository {
	return &regionConfigRepository{db: db}
}

func (r *regionConfigRepository) Create(ctx context.Context, config *model.RegionConfig) error {
	return GetDB(ctx, r.db).Create(config).Error
}

func (r *regionConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RegionConfig, error) {
	var config model.RegionConfig
	if err := GetDB(ctx, r.db).Preload("Reward").First(&config, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *regionConfigRepository) FindByTriple(ctx context.Context, region, category, subcategory string) (*model.RegionConfig, error) {
	var config model.RegionConfig
	if err := GetDB(ctx, r.db).
		First(&config, "region = ? AND category = ? AND subcategory = ?", region, category, subcategory).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *regionConfigRepository) Update(ctx context.Context, config *model.RegionConfig) error {
	return GetDB(ctx, r.db).Save(config).Error
}

func (r *regionConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.RegionConfig{}).Error
}

func (r *regionConfigRepository) List(ctx context.Context, region, category string, activeOnly bool, page, limit int) ([]model.RegionConfig, int64, error) {
	var configs []model.RegionConfig
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if region != "" {
			q = q.Where("region = ?", region)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if activeOnly {
			q = q.Where("expires_at IS NULL OR expires_at > ?", time.Now())
		}
		return q
	}

	if err := apply(db.Model(&model.RegionConfig{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Preload("Reward")).
		Order("region ASC, category ASC, subcategory ASC").
		Offset(offset).Limit(limit).Find(&configs).Error; err != nil {
		return nil, 0, err
	}

	return configs, total, nil
}
