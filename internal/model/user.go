package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleSuperAdmin     = "super_admin"
	RoleAccountManager = "account_manager"
)

// Business segments. Contracts and users are both tagged with one of these.
const (
	SegmentGovernment = "government_service"
	SegmentBusiness   = "business_service"
	SegmentEnterprise = "enterprise_service"
	SegmentPRQ        = "PRQ"
)

// Segments lists the known business segments in reporting order.
var Segments = []string{SegmentGovernment, SegmentBusiness, SegmentEnterprise, SegmentPRQ}

// ValidRole reports whether role is a recognized user role.
func ValidRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleAccountManager
}

// ValidSegment reports whether segment is one of the known business segments.
func ValidSegment(segment string) bool {
	for _, s := range Segments {
		if s == segment {
			return true
		}
	}
	return false
}

// User represents an account manager profile stored in the database.
// The ID mirrors the identity provider's user ID so that profile rows
// and identity accounts stay referentially consistent.
type User struct {
	ID           string         `json:"id" gorm:"primaryKey;type:uuid"`
	Name         string         `json:"name" gorm:"type:varchar(100)"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"column:password_hash;type:varchar(100)"`
	Role         string         `json:"role" gorm:"type:varchar(50);index"`
	Segment      string         `json:"segment" gorm:"type:varchar(50);index"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
