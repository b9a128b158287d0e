package dto

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// AccountResponse is the public view of an account. Profile is only set for
// students.
type AccountResponse struct {
	ID         uint                 `json:"id"`
	Name       string               `json:"name"`
	RegNumber  string               `json:"reg_number"`
	Email      string               `json:"email"`
	Department string               `json:"department"`
	Role       models.Role          `json:"role"`
	IsActive   bool                 `json:"is_active"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
	Profile    *ApplicationResponse `json:"profile,omitempty"`
}

// NewAccountResponse converts an account without its application.
func NewAccountResponse(account models.Account) AccountResponse {
	return AccountResponse{
		ID:         account.ID,
		Name:       account.Name,
		RegNumber:  account.RegNumber,
		Email:      account.Email,
		Department: account.Department,
		Role:       account.Role,
		IsActive:   account.IsActive,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
	}
}

// NewAccountWithProfile converts an account and embeds its application when loaded.
func NewAccountWithProfile(account models.Account) AccountResponse {
	response := NewAccountResponse(account)
	if account.Application != nil {
		profile := NewApplicationResponse(*account.Application)
		response.Profile = &profile
	}
	return response
}

// ApplicationResponse mirrors the stored application.
type ApplicationResponse struct {
	ID              uint                     `json:"id"`
	AccountID       uint                     `json:"account_id"`
	Phone           string                   `json:"phone"`
	DateOfBirth     *string                  `json:"date_of_birth"`
	Address         string                   `json:"address"`
	NextOfKin       string                   `json:"next_of_kin"`
	NextOfKinPhone  string                   `json:"next_of_kin_phone"`
	IDNumber        string                   `json:"id_number"`
	PhotoURL        string                   `json:"photo_url"`
	YearOfStudy     string                   `json:"year_of_study"`
	Course          string                   `json:"course"`
	Status          models.ApplicationStatus `json:"status"`
	CardPrinted     bool                     `json:"card_printed"`
	CardIssued      bool                     `json:"card_issued"`
	ExpiryDate      *time.Time               `json:"expiry_date"`
	SubmittedAt     time.Time                `json:"submitted_at"`
	ApprovedAt      *time.Time               `json:"approved_at"`
	PrintedAt       *time.Time               `json:"printed_at"`
	IssuedAt        *time.Time               `json:"issued_at"`
	AdminNotes      *string                  `json:"admin_notes"`
	RejectionReason *string                  `json:"rejection_reason"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// DateLayout is the wire format of calendar dates such as date_of_birth.
const DateLayout = "2006-01-02"

// NewApplicationResponse converts an application model into a DTO.
func NewApplicationResponse(app models.Application) ApplicationResponse {
	var dob *string
	if app.DateOfBirth != nil {
		formatted := app.DateOfBirth.Format(DateLayout)
		dob = &formatted
	}
	return ApplicationResponse{
		ID:              app.ID,
		AccountID:       app.AccountID,
		Phone:           app.Phone,
		DateOfBirth:     dob,
		Address:         app.Address,
		NextOfKin:       app.NextOfKin,
		NextOfKinPhone:  app.NextOfKinPhone,
		IDNumber:        app.IDNumber,
		PhotoURL:        app.PhotoURL,
		YearOfStudy:     app.YearOfStudy,
		Course:          app.Course,
		Status:          app.Status,
		CardPrinted:     app.CardPrinted,
		CardIssued:      app.CardIssued,
		ExpiryDate:      app.ExpiryDate,
		SubmittedAt:     app.SubmittedAt,
		ApprovedAt:      app.ApprovedAt,
		PrintedAt:       app.PrintedAt,
		IssuedAt:        app.IssuedAt,
		AdminNotes:      app.AdminNotes,
		RejectionReason: app.RejectionReason,
		UpdatedAt:       app.UpdatedAt,
	}
}
