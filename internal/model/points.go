package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PointsHistory entry type enum constants
const (
	PointsEntryDealApproval     = "deal_approval"
	PointsEntryRedemption       = "redemption"
	PointsEntryRedemptionRefund = "redemption_refund"
	PointsEntryAdjustment       = "adjustment"
)

// PointsConfig is the single global rate sheet: the goal-rate fallback for deals
// without a RegionConfig, plus the points conversion rates applied to every deal.
type PointsConfig struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NewCustomerGoalRate   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_customer_goal_rate"`
	RenewalGoalRate       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"renewal_goal_rate"`
	NewCustomerPointsRate decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"new_customer_points_rate"`
	RenewalPointsRate     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"renewal_points_rate"`
	UpdatedBy             *uuid.UUID      `gorm:"type:uuid" json:"updated_by"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// PointsHistory is the signed ledger behind a user's available points.
// The balance is never stored on the user: it is SUM(points) over this table.
type PointsHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Points      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"points"`           // signed: positive = earned, negative = spent
	EntryType   string          `gorm:"type:varchar(30);not null;index" json:"entry_type"`   // deal_approval, redemption, redemption_refund, adjustment
	Description string          `gorm:"type:text" json:"description"`
	ReferenceID *uuid.UUID      `gorm:"type:uuid;index" json:"reference_id"` // originating deal or user_reward id
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}
