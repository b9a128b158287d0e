package dto

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// ProfileUpdateRequest lists the fields a student may change. Nil fields
// are left untouched.
type ProfileUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=100"`
	Department     *string `json:"department" validate:"omitempty,min=2,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,ke_phone"`
	DateOfBirth    *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	NextOfKin      *string `json:"next_of_kin" validate:"omitempty,max=100"`
	NextOfKinPhone *string `json:"next_of_kin_phone" validate:"omitempty,ke_phone"`
	Course         *string `json:"course" validate:"omitempty,max=200"`
	YearOfStudy    *string `json:"year_of_study" validate:"omitempty,year_of_study"`
}

// ProfileUpdateResponse reports which fields changed.
type ProfileUpdateResponse struct {
	UpdatedFields []string        `json:"updated_fields"`
	Profile       AccountResponse `json:"profile"`
}

// PhotoResponse returns the stored portrait.
type PhotoResponse struct {
	PhotoURL string `json:"photo_url"`
}

// MilestoneResponse is one entry of status_history.
type MilestoneResponse struct {
	Status  models.ApplicationStatus `json:"status"`
	Date    time.Time                `json:"date"`
	Message string                   `json:"message"`
}

// StatusResponse summarises where an application is in the lifecycle.
type StatusResponse struct {
	CurrentStatus      models.ApplicationStatus `json:"current_status"`
	ProgressPercentage int                      `json:"progress_percentage"`
	IDNumber           string                   `json:"id_number"`
	SubmittedDate      time.Time                `json:"submitted_date"`
	ExpiryDate         *time.Time               `json:"expiry_date"`
	NextSteps          string                   `json:"next_steps"`
	StatusHistory      []MilestoneResponse      `json:"status_history"`
	RejectionReason    *string                  `json:"rejection_reason,omitempty"`
	AdminNotes         *string                  `json:"admin_notes"`
}

// ResubmitResponse is returned after a rejected application is resubmitted.
type ResubmitResponse struct {
	Status      models.ApplicationStatus `json:"status"`
	SubmittedAt time.Time                `json:"submitted_at"`
}

// DashboardStatsResponse feeds the student dashboard.
type DashboardStatsResponse struct {
	ApplicationStatus    models.ApplicationStatus `json:"application_status"`
	DaysSinceApplication int                      `json:"days_since_application"`
	DaysUntilExpiry      *int                     `json:"days_until_expiry"`
	ProfileCompletion    int                      `json:"profile_completion"`
	IDNumber             string                   `json:"id_number"`
	HasPhoto             bool                     `json:"has_photo"`
	CardIssued           bool                     `json:"card_issued"`
	CardPrinted          bool                     `json:"card_printed"`
}
