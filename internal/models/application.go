package models

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is a position in the ID card lifecycle.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusPrinted   ApplicationStatus = "printed"
	StatusIssued    ApplicationStatus = "issued"
)

// ApplicationStatuses lists every status in lifecycle order.
func ApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{StatusPending, StatusReviewing, StatusApproved, StatusRejected, StatusPrinted, StatusIssued}
}

func (s ApplicationStatus) Valid() bool {
	for _, candidate := range ApplicationStatuses() {
		if s == candidate {
			return true
		}
	}
	return false
}

// Application is the student's ID card request. Status and the timestamps
// next to it are only written through the lifecycle engine.
type Application struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	AccountID       uint              `gorm:"uniqueIndex;not null" json:"account_id"`
	Phone           string            `gorm:"size:20" json:"phone"`
	DateOfBirth     *time.Time        `json:"date_of_birth"`
	Address         string            `gorm:"type:text" json:"address"`
	NextOfKin       string            `gorm:"size:100" json:"next_of_kin"`
	NextOfKinPhone  string            `gorm:"size:20" json:"next_of_kin_phone"`
	IDNumber        string            `gorm:"size:50;uniqueIndex" json:"id_number"`
	PhotoURL        string            `gorm:"size:255" json:"photo_url"`
	YearOfStudy     string            `gorm:"size:20" json:"year_of_study"`
	Course          string            `gorm:"size:200" json:"course"`
	Status          ApplicationStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	CardPrinted     bool              `gorm:"not null;default:false" json:"card_printed"`
	CardIssued      bool              `gorm:"not null;default:false" json:"card_issued"`
	ExpiryDate      *time.Time        `json:"expiry_date"`
	SubmittedAt     time.Time         `gorm:"not null" json:"submitted_at"`
	ApprovedAt      *time.Time        `json:"approved_at"`
	PrintedAt       *time.Time        `json:"printed_at"`
	IssuedAt        *time.Time        `json:"issued_at"`
	AdminNotes      *string           `gorm:"type:text" json:"admin_notes"`
	RejectionReason *string           `gorm:"type:text" json:"rejection_reason"`
	Version         uint              `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewIDNumber returns an identifier of the form GAU<year><6 digits>.
func NewIDNumber(now time.Time) string {
	id := uuid.New()
	suffix := binary.BigEndian.Uint32(id[:4]) % 1000000
	return fmt.Sprintf("GAU%d%06d", now.Year(), suffix)
}
