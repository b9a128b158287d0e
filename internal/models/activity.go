package models

import (
	"time"

	"gorm.io/datatypes"
)

// AdminActivity is an append-only audit row written by privileged actions.
type AdminActivity struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ActorID         uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole       string            `gorm:"size:16;not null" json:"actor_role"`
	Action          string            `gorm:"size:100;not null;index" json:"action"`
	TargetAccountID *uint             `gorm:"index" json:"target_account_id"`
	Details         string            `gorm:"type:text" json:"details"`
	Metadata        datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	IPAddress       string            `gorm:"size:45" json:"ip_address"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
}
