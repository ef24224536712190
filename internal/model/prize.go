package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GrandPrizeCriteria scoring mode enum constants
const (
	CriteriaTypeWeighted = "weighted"
	CriteriaTypePoints   = "points"
	CriteriaTypeDeals    = "deals"
	CriteriaTypeTopGoals = "top_goals"
)

// MonthlyRegionPrize names the prize for one rank in one region segment's month.
type MonthlyRegionPrize struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RegionConfigID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_monthly_prizes_period" json:"region_config_id"`
	RegionConfig     *RegionConfig   `gorm:"foreignKey:RegionConfigID" json:"region_config,omitempty"`
	Month            int             `gorm:"not null;uniqueIndex:idx_monthly_prizes_period" json:"month"` // 1-12
	Year             int             `gorm:"not null;uniqueIndex:idx_monthly_prizes_period" json:"year"`
	Rank             int             `gorm:"not null;uniqueIndex:idx_monthly_prizes_period" json:"rank"` // 1 = first place
	PrizeName        string          `gorm:"type:varchar(255);not null" json:"prize_name"`
	PrizeDescription string          `gorm:"type:text" json:"prize_description"`
	GoalThreshold    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"goal_threshold"` // minimum goals to qualify
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// GrandPrizeCriteria defines one evaluation window and its scoring formula.
// Weights are percentages and only used in the weighted mode.
type GrandPrizeCriteria struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	CriteriaType     string     `gorm:"type:varchar(20);not null" json:"criteria_type"` // weighted, points, deals, top_goals
	PointsWeight     int        `gorm:"not null;default:0" json:"points_weight"`
	DealsWeight      int        `gorm:"not null;default:0" json:"deals_weight"`
	StartDate        time.Time  `gorm:"not null" json:"start_date"`
	EndDate          time.Time  `gorm:"not null" json:"end_date"`
	Region           string     `gorm:"type:varchar(50)" json:"region"` // empty = all regions
	TopN             int        `gorm:"not null;default:3" json:"top_n"`
	PrizeDescription string     `gorm:"type:text" json:"prize_description"`
	EvaluatedAt      *time.Time `json:"evaluated_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// GrandPrizeWinner is an immutable snapshot row from one evaluation run.
// Re-evaluating a criteria replaces the set; individual rows are never updated.
type GrandPrizeWinner struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CriteriaID  uuid.UUID           `gorm:"type:uuid;not null;index" json:"criteria_id"`
	Criteria    *GrandPrizeCriteria `gorm:"foreignKey:CriteriaID" json:"criteria,omitempty"`
	UserID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Rank        int                 `gorm:"not null" json:"rank"`
	Score       decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"score"`
	TotalPoints decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"total_points"`
	TotalDeals  int                 `gorm:"not null;default:0" json:"total_deals"`
	CreatedAt   time.Time           `json:"created_at"`
}
