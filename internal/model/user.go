package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleUser          = "user"
	RoleAdmin         = "admin"
	RoleRegionalAdmin = "regional-admin"
	RoleSuperAdmin    = "super-admin"
)

// User represents a program participant or a console administrator.
// The same email may register once per region, so uniqueness is on the pair.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string         `gorm:"type:varchar(255);not null" json:"name"`
	Email               string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_region" json:"email"`
	Region              string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_users_email_region" json:"region"`
	Password            string         `gorm:"type:varchar(255)" json:"-"` // bcrypt hash; empty for passwordless (magic-link) users
	Role                string         `gorm:"type:varchar(30);not null;default:'user';index" json:"role"` // user, admin, regional-admin, super-admin
	Category            string         `gorm:"type:varchar(100)" json:"category"`
	Subcategory         string         `gorm:"type:varchar(150)" json:"subcategory"`
	Active              bool           `gorm:"not null;default:true" json:"active"`
	Approved            bool           `gorm:"not null;default:false;index" json:"approved"`
	LoginToken          *string        `gorm:"type:varchar(64);uniqueIndex" json:"-"` // single-use magic-link token
	LoginTokenExpiresAt *time.Time     `json:"-"`
	AdminRegionID       *uuid.UUID     `gorm:"type:uuid" json:"admin_region_id"` // regional-admin scope, FK to region_configs.id
	AdminRegion         *RegionConfig  `gorm:"foreignKey:AdminRegionID" json:"admin_region,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}
