package service

import (
	"fmt"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/lifecycle"
	"github.com/noah-isme/gau-id-api/internal/models"
)

// statusEvent builds the notification sent after a lifecycle transition.
// Resubmission is initiated by the student and produces no event.
func statusEvent(result lifecycle.Result, app models.Application) (NotificationEvent, bool) {
	event := NotificationEvent{
		Type: dto.NotificationTypeStatus,
		Payload: map[string]interface{}{
			"action":          string(result.Action),
			"previous_status": string(result.From),
			"status":          string(result.To),
			"id_number":       app.IDNumber,
		},
	}

	switch result.Action {
	case lifecycle.ActionReview:
		event.Title = "ID Application Under Review"
		event.Message = "An administrator has started reviewing your ID card application."
		event.Priority = models.PriorityMedium
	case lifecycle.ActionApprove:
		event.Title = "ID Application Approved"
		event.Message = "Your ID card application has been approved and is now queued for printing."
		event.Priority = models.PriorityHigh
	case lifecycle.ActionReject:
		reason := "No reason provided"
		if app.RejectionReason != nil {
			reason = *app.RejectionReason
		}
		event.Title = "ID Application Rejected"
		event.Message = fmt.Sprintf("Your ID application was rejected. Reason: %s", reason)
		event.Priority = models.PriorityHigh
	case lifecycle.ActionPrint:
		event.Title = "ID Card Printed"
		event.Message = "Your ID card has been printed. You will be notified when ready for collection."
		event.Priority = models.PriorityHigh
	case lifecycle.ActionIssue:
		event.Title = "ID Card Ready for Collection"
		event.Message = "Your ID card is ready for collection at the Student Services office."
		event.Priority = models.PriorityUrgent
	default:
		return NotificationEvent{}, false
	}
	return event, true
}

func welcomeEvent(account models.Account) NotificationEvent {
	return NotificationEvent{
		Type:     dto.NotificationTypeWelcome,
		Title:    "Welcome to GAU ID View",
		Message:  fmt.Sprintf("Welcome %s! Your ID application is now pending review.", account.Name),
		Priority: models.PriorityMedium,
	}
}
