package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserReward status enum constants
const (
	RedemptionPending   = "pending"
	RedemptionApproved  = "approved"
	RedemptionRejected  = "rejected"
	RedemptionDelivered = "delivered"
)

// Shipment status enum constants
const (
	ShipmentPending   = "pending"
	ShipmentShipped   = "shipped"
	ShipmentDelivered = "delivered"
)

// Reward is a catalog item users redeem points for. An empty Region means the
// reward is available in every region.
type Reward struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	PointsCost  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"points_cost"`
	Region      string          `gorm:"type:varchar(50);index" json:"region"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	ImageURL    string          `gorm:"type:text" json:"image_url"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// UserReward is one redemption instance. Status tracks admin review; shipment
// advances separately once approved and only ever forward:
// pending -> shipped -> delivered. PointsSpent snapshots the cost at redemption
// time so later catalog price changes do not affect refunds.
type UserReward struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RewardID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"reward_id"`
	Reward          *Reward         `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	Region          string          `gorm:"type:varchar(50);index" json:"region"` // redeemer's region at redemption time
	Status          string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ShipmentStatus  string          `gorm:"type:varchar(20);not null;default:'pending'" json:"shipment_status"`
	PointsSpent     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"points_spent"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver        *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
