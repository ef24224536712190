package model

import (
	"time"

	"github.com/google/uuid"
)

// SupportTicket status enum constants
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// SupportTicket priority enum constants
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
)

// SupportTicket is a user-submitted issue with an optional admin response.
type SupportTicket struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Region        string     `gorm:"type:varchar(50);index" json:"region"` // copied from the submitting user for scoped listing
	Subject       string     `gorm:"type:varchar(255);not null" json:"subject"`
	Description   string     `gorm:"type:text" json:"description"`
	Status        string     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"` // open, in_progress, resolved, closed
	Priority      string     `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`   // low, medium, high
	AdminResponse string     `gorm:"type:text" json:"admin_response"`
	RespondedBy   *uuid.UUID `gorm:"type:uuid" json:"responded_by"`
	Responder     *User      `gorm:"foreignKey:RespondedBy" json:"responder,omitempty"`
	RespondedAt   *time.Time `json:"responded_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
