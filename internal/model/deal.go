package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deal status enum constants
const (
	DealStatusPending  = "pending"
	DealStatusApproved = "approved"
	DealStatusRejected = "rejected"
)

// Deal type enum constants
const (
	DealTypeNewCustomer = "new_customer"
	DealTypeRenewal     = "renewal"
)

// Deal is a user-submitted sale awaiting admin review. GoalsEarned and
// PointsEarned stay zero until approval converts the deal value with the
// segment's rates. No transition leaves approved or rejected.
type Deal struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RegionConfigID  *uuid.UUID      `gorm:"type:uuid;index" json:"region_config_id"` // nullable, falls back to global rates
	RegionConfig    *RegionConfig   `gorm:"foreignKey:RegionConfigID" json:"region_config,omitempty"`
	Region          string          `gorm:"type:varchar(50);not null;index" json:"region"` // copied from the submitting user for scoped listing
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	Description     string          `gorm:"type:text" json:"description"`
	DealValue       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"deal_value"`
	DealType        string          `gorm:"type:varchar(30);not null" json:"deal_type"` // new_customer, renewal
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GoalsEarned     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"goals_earned"`
	PointsEarned    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"points_earned"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver        *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
