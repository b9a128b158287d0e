package lifecycle

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// Progress maps a status to the percentage shown to students.
func Progress(status models.ApplicationStatus) int {
	switch status {
	case models.StatusPending:
		return 10
	case models.StatusReviewing:
		return 30
	case models.StatusApproved:
		return 60
	case models.StatusPrinted:
		return 80
	case models.StatusIssued:
		return 100
	}
	return 0
}

// NextStep describes what happens after status.
func NextStep(status models.ApplicationStatus) string {
	switch status {
	case models.StatusPending:
		return "Your application is in the queue and will be reviewed by an administrator."
	case models.StatusReviewing:
		return "An administrator is verifying your details."
	case models.StatusApproved:
		return "Your ID card has been approved and will be printed soon."
	case models.StatusPrinted:
		return "Your ID card is printed and ready for collection."
	case models.StatusIssued:
		return "Your ID card has been issued. Keep it safe."
	case models.StatusRejected:
		return "Update your details and resubmit the application."
	}
	return ""
}

// Milestone is one dated step in an application's history.
type Milestone struct {
	Status  models.ApplicationStatus
	Date    time.Time
	Message string
}

// History reconstructs the milestones reached by app, oldest first.
func History(app models.Application) []Milestone {
	history := []Milestone{{
		Status:  models.StatusPending,
		Date:    app.SubmittedAt,
		Message: "Application submitted",
	}}

	if app.Status == models.StatusRejected {
		history = append(history, Milestone{
			Status:  models.StatusRejected,
			Date:    app.UpdatedAt,
			Message: "Application rejected",
		})
		return history
	}
	if app.Status == models.StatusReviewing {
		history = append(history, Milestone{
			Status:  models.StatusReviewing,
			Date:    app.UpdatedAt,
			Message: "Application under review",
		})
	}
	if app.ApprovedAt != nil {
		history = append(history, Milestone{Status: models.StatusApproved, Date: *app.ApprovedAt, Message: "Application approved"})
	}
	if app.PrintedAt != nil {
		history = append(history, Milestone{Status: models.StatusPrinted, Date: *app.PrintedAt, Message: "ID card printed"})
	}
	if app.IssuedAt != nil {
		history = append(history, Milestone{Status: models.StatusIssued, Date: *app.IssuedAt, Message: "ID card issued"})
	}
	return history
}
