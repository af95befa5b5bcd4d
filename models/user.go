package models

import (
	"strings"

	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents a tenant account (a turf manager) or an administrator.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	CourseName   string `json:"course_name"`
	Role         string `gorm:"type:varchar(16);default:member" json:"role"`
	Approved     bool   `gorm:"not null;default:false" json:"approved"`

	// DataVersion is an opaque token rotated on every mutation of the
	// tenant's dataset. Writers may present it via If-Match to detect
	// lost updates.
	DataVersion string `gorm:"type:varchar(36)" json:"data_version"`
}

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// ValidRole reports whether value is a recognised account role.
func ValidRole(value string) bool {
	switch value {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// NormalizeRole maps arbitrary input onto a supported role, defaulting to member.
func NormalizeRole(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if ValidRole(trimmed) {
		return trimmed
	}
	return RoleMember
}
