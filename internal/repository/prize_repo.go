package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrizeRepository interface {
	CreateMonthlyPrize(ctx context.Context, prize *model.MonthlyRegionPrize) error
	FindMonthlyPrizeByID(ctx context.Context, id uuid.UUID) (*model.MonthlyRegionPrize, error)
	FindMonthlyPrizeByPeriod(ctx context.Context, regionConfigID uuid.UUID, month, year, rank int) (*model.MonthlyRegionPrize, error)
	UpdateMonthlyPrize(ctx context.Context, prize *model.MonthlyRegionPrize) error
	DeleteMonthlyPrize(ctx context.Context, id uuid.UUID) error
	ListMonthlyPrizes(ctx context.Context, month, year int, region string, page, limit int) ([]model.MonthlyRegionPrize, int64, error)

	CreateCriteria(ctx context.Context, criteria *model.GrandPrizeCriteria) error
	FindCriteriaByID(ctx context.Context, id uuid.UUID) (*model.GrandPrizeCriteria, error)
	UpdateCriteria(ctx context.Context, criteria *model.GrandPrizeCriteria) error
	DeleteCriteria(ctx context.Context, id uuid.UUID) error
	ListCriteria(ctx context.Context, page, limit int) ([]model.GrandPrizeCriteria, int64, error)

	ReplaceWinners(ctx context.Context, criteriaID uuid.UUID, winners []model.GrandPrizeWinner) error
	ListWinners(ctx context.Context, criteriaID uuid.UUID) ([]model.GrandPrizeWinner, error)
	UserTotals(ctx context.Context, start, end time.Time, region string) ([]model.UserStanding, error)
}

type prizeRepository struct {
	db *gorm.DB
}

func NewPrizeRepository(db *gorm.DB) PrizeRepository {
	return &prizeRepository{db: db}
}

func (r *prizeRepository) CreateMonthlyPrize(ctx context.Context, prize *model.MonthlyRegionPrize) error {
	return GetDB(ctx, r.db).Create(prize).Error
}

func (r *prizeRepository) FindMonthlyPrizeByID(ctx context.Context, id uuid.UUID) (*model.MonthlyRegionPrize, error) {
	var prize model.MonthlyRegionPrize
	if err := GetDB(ctx, r.db).Preload("RegionConfig").First(&prize, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &prize, nil
}

func (r *prizeRepository) FindMonthlyPrizeByPeriod(ctx context.Context, regionConfigID uuid.UUID, month, year, rank int) (*model.MonthlyRegionPrize, error) {
	var prize model.MonthlyRegionPrize
	if err := GetDB(ctx, r.db).
		First(&prize, "region_config_id = ? AND month = ? AND year = ? AND rank = ?",
			regionConfigID, month, year, rank).Error; err != nil {
		return nil, err
	}
	return &prize, nil
}

func (r *prizeRepository) UpdateMonthlyPrize(ctx context.Context, prize *model.MonthlyRegionPrize) error {
	return GetDB(ctx, r.db).Save(prize).Error
}

func (r *prizeRepository) DeleteMonthlyPrize(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.MonthlyRegionPrize{}).Error
}

// ListMonthlyPrizes filters by period and, via the owning RegionConfig, by region name.
func (r *prizeRepository) ListMonthlyPrizes(ctx context.Context, month, year int, region string, page, limit int) ([]model.MonthlyRegionPrize, int64, error) {
	var prizes []model.MonthlyRegionPrize
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if month > 0 {
			q = q.Where("monthly_region_prizes.month = ?", month)
		}
		if year > 0 {
			q = q.Where("monthly_region_prizes.year = ?", year)
		}
		if region != "" {
			q = q.Joins("JOIN region_configs ON region_configs.id = monthly_region_prizes.region_config_id").
				Where("region_configs.region = ?", region)
		}
		return q
	}

	if err := apply(db.Model(&model.MonthlyRegionPrize{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.MonthlyRegionPrize{})).Preload("RegionConfig").
		Order("monthly_region_prizes.year DESC, monthly_region_prizes.month DESC, monthly_region_prizes.rank ASC").
		Offset(offset).Limit(limit).Find(&prizes).Error; err != nil {
		return nil, 0, err
	}

	return prizes, total, nil
}

func (r *prizeRepository) CreateCriteria(ctx context.Context, criteria *model.GrandPrizeCriteria) error {
	return GetDB(ctx, r.db).Create(criteria).Error
}

func (r *prizeRepository) FindCriteriaByID(ctx context.Context, id uuid.UUID) (*model.GrandPrizeCriteria, error) {
	var criteria model.GrandPrizeCriteria
	if err := GetDB(ctx, r.db).First(&criteria, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &criteria, nil
}

func (r *prizeRepository) UpdateCriteria(ctx context.Context, criteria *model.GrandPrizeCriteria) error {
	return GetDB(ctx, r.db).Save(criteria).Error
}

func (r *prizeRepository) DeleteCriteria(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.GrandPrizeCriteria{}).Error
}

func (r *prizeRepository) ListCriteria(ctx context.Context, page, limit int) ([]model.GrandPrizeCriteria, int64, error) {
	var criteria []model.GrandPrizeCriteria
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.GrandPrizeCriteria{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&criteria).Error; err != nil {
		return nil, 0, err
	}

	return criteria, total, nil
}

// ReplaceWinners swaps the snapshot set for a criteria run. Callers wrap this
// in a transaction together with the EvaluatedAt stamp.
func (r *prizeRepository) ReplaceWinners(ctx context.Context, criteriaID uuid.UUID, winners []model.GrandPrizeWinner) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("criteria_id = ?", criteriaID).Delete(&model.GrandPrizeWinner{}).Error; err != nil {
		return err
	}
	if len(winners) == 0 {
		return nil
	}
	return db.Create(&winners).Error
}

func (r *prizeRepository) ListWinners(ctx context.Context, criteriaID uuid.UUID) ([]model.GrandPrizeWinner, error) {
	var winners []model.GrandPrizeWinner
	if err := GetDB(ctx, r.db).Preload("User").
		Where("criteria_id = ?", criteriaID).
		Order("rank ASC").Find(&winners).Error; err != nil {
		return nil, err
	}
	return winners, nil
}

// UserTotals aggregates approved deal activity per user inside the window.
func (r *prizeRepository) UserTotals(ctx context.Context, start, end time.Time, region string) ([]model.UserStanding, error) {
	var standings []model.UserStanding

	query := GetDB(ctx, r.db).Table("deals").
		Select(`users.id as user_id, users.name as user_name, users.email as email, users.region as region,
			COALESCE(SUM(deals.points_earned), 0) as total_points,
			COALESCE(SUM(deals.goals_earned), 0) as total_goals,
			COUNT(deals.id) as total_deals`).
		Joins("JOIN users ON users.id = deals.user_id").
		Where("deals.status = ? AND deals.approved_at >= ? AND deals.approved_at <= ?",
			model.DealStatusApproved, start, end)
	if region != "" {
		query = query.Where("deals.region = ?", region)
	}

	if err := query.
		Group("users.id, users.name, users.email, users.region").
		Order("total_points DESC").
		Scan(&standings).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate user totals: %w", err)
	}

	return standings, nil
}
