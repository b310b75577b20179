// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Enums
type UserRole string

const (
	UserRoleAdmin          UserRole = "ADMIN"
	UserRoleStaff          UserRole = "STAFF"
	UserRoleSocietyManager UserRole = "SOCIETY_MANAGER"
	UserRoleFarmer         UserRole = "FARMER"
)

// IsStaff reports whether the role carries board-staff privileges.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleStaff
}

type PermitStatus string

const (
	PermitStatusPending   PermitStatus = "PENDING"
	PermitStatusApproved  PermitStatus = "APPROVED"
	PermitStatusRejected  PermitStatus = "REJECTED"
	PermitStatusCancelled PermitStatus = "CANCELLED"
	PermitStatusExpired   PermitStatus = "EXPIRED"
)

// AllPermitStatuses is the fixed status set, in chart order. Analytics
// zero-fills every status in every emitted period from this list.
var AllPermitStatuses = []PermitStatus{
	PermitStatusPending,
	PermitStatusApproved,
	PermitStatusRejected,
	PermitStatusCancelled,
	PermitStatusExpired,
}

// IsTerminal reports whether the status can never be transitioned out of.
func (s PermitStatus) IsTerminal() bool {
	switch s {
	case PermitStatusRejected, PermitStatusCancelled, PermitStatusExpired:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationNewPermit       NotificationType = "NEW_PERMIT"
	NotificationPermitApproved  NotificationType = "PERMIT_APPROVED"
	NotificationPermitRejected  NotificationType = "PERMIT_REJECTED"
	NotificationPermitCancelled NotificationType = "PERMIT_CANCELLED"
)
