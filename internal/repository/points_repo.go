package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PointsRepository owns the global rate config and the per-user points ledger.
type PointsRepository interface {
	GetConfig(ctx context.Context) (*model.PointsConfig, error)
	SaveConfig(ctx context.Context, config *model.PointsConfig) error
	CreateEntry(ctx context.Context, entry *model.PointsHistory) error
	SumByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsHistory, int64, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

// GetConfig returns the single global rate sheet row.
func (r *pointsRepository) GetConfig(ctx context.Context) (*model.PointsConfig, error) {
	var config model.PointsConfig
	if err := GetDB(ctx, r.db).Order("created_at ASC").First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *pointsRepository) SaveConfig(ctx context.Context, config *model.PointsConfig) error {
	return GetDB(ctx, r.db).Save(config).Error
}

func (r *pointsRepository) CreateEntry(ctx context.Context, entry *model.PointsHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

// SumByUser computes the user's available points as the signed ledger total.
func (r *pointsRepository) SumByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.PointsHistory{}).
		Select("COALESCE(SUM(points), 0) as total").
		Where("user_id = ?", userID).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.PointsHistory, int64, error) {
	var entries []model.PointsHistory
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PointsHistory{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
