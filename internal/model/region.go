package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sales region enum constants
const (
	RegionNOLA   = "NOLA"
	RegionSOLA   = "SOLA"
	RegionMexico = "MEXICO"
	RegionBrazil = "BRAZIL"
)

// RegionConfig declares goal conversion rates for one (region, category, subcategory)
// partner segment. Rates are prefilled from the global PointsConfig at creation time
// but fully independent of it afterwards.
type RegionConfig struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Region              string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_region_configs_triple;index" json:"region"`
	Category            string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_region_configs_triple" json:"category"`
	Subcategory         string          `gorm:"type:varchar(150);not null;default:'';uniqueIndex:idx_region_configs_triple" json:"subcategory"` // empty = whole region/category segment
	NewCustomerGoalRate decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_customer_goal_rate"`
	RenewalGoalRate     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"renewal_goal_rate"`
	MonthlyGoalTarget   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"monthly_goal_target"`
	RewardID            *uuid.UUID      `gorm:"type:uuid" json:"reward_id"` // optional linked reward for hitting the monthly target
	Reward              *Reward         `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	ExpiresAt           *time.Time      `json:"expires_at"` // null = permanent; past date = inactive for new deal conversion
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// IsActive reports whether the config still participates in deal conversion.
func (rc *RegionConfig) IsActive(now time.Time) bool {
	return rc.ExpiresAt == nil || rc.ExpiresAt.After(now)
}
