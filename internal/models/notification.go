package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a personal message produced by a status change.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	AccountID uint              `gorm:"not null;index" json:"account_id"`
	Type      string            `gorm:"size:64;not null" json:"type"`
	Title     string            `gorm:"size:200;not null" json:"title"`
	Message   string            `gorm:"type:text" json:"message"`
	Priority  string            `gorm:"size:10;not null;default:medium" json:"priority"`
	Payload   datatypes.JSONMap `gorm:"type:json" json:"payload"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
