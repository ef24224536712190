package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionApproveDeal       = "APPROVE_DEAL"
	ActionRejectDeal        = "REJECT_DEAL"
	ActionApproveUser       = "APPROVE_USER"
	ActionRejectUser        = "REJECT_USER"
	ActionApproveRedemption = "APPROVE_REDEMPTION"
	ActionRejectRedemption  = "REJECT_REDEMPTION"
	ActionUpdateShipment    = "UPDATE_SHIPMENT"
	ActionEvaluatePrize     = "EVALUATE_GRAND_PRIZE"
	ActionImportDeals       = "IMPORT_DEALS"
	ActionImportUsers       = "IMPORT_USERS"
	ActionAdjustPoints      = "ADJUST_POINTS"
)

// AuditLog tracks Who, What, and When for admin workflow mutations. Rows are
// written in the same transaction as the change they record.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for system-initiated changes
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
