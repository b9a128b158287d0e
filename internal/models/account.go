package models

import (
	"strings"
	"time"
)

// Role is the access level attached to an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// ParseRole normalises a raw role value.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Allows reports whether r is one of roles.
func (r Role) Allows(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// IsReviewer reports whether the role may act on other students' applications.
func (r Role) IsReviewer() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Account is a user identity. Students own exactly one Application.
type Account struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"size:100;not null" json:"name"`
	RegNumber    string       `gorm:"size:50;uniqueIndex;not null" json:"reg_number"`
	Email        string       `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"size:128;not null" json:"-"`
	Department   string       `gorm:"size:100;not null" json:"department"`
	Role         Role         `gorm:"size:16;not null;default:student;index" json:"role"`
	IsActive     bool         `gorm:"not null;default:true;index" json:"is_active"`
	Application  *Application `gorm:"foreignKey:AccountID" json:"application,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
