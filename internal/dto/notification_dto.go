package dto

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// Notification types used in the student feed.
const (
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeStatus       = "status_update"
	NotificationTypeWelcome      = "welcome"
)

// NotificationResponse is a personal notification.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	AccountID uint                   `json:"account_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Priority  string                 `json:"priority"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewNotificationResponse converts a model into a DTO.
func NewNotificationResponse(notification models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID,
		AccountID: notification.AccountID,
		Type:      notification.Type,
		Title:     notification.Title,
		Message:   notification.Message,
		Priority:  notification.Priority,
		Payload:   map[string]interface{}(notification.Payload),
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, NewNotificationResponse(notification))
	}
	return out
}

// FeedItem is one entry of the student notification feed. ID is prefixed
// with the source ("announcement_3", "notification_7"); NotificationID is set
// for personal notifications so they can be marked read.
type FeedItem struct {
	ID             string     `json:"id"`
	NotificationID *uint      `json:"notification_id,omitempty"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Priority       string     `json:"priority"`
	Read           bool       `json:"read"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// NotificationFeedResponse merges announcements and personal notifications.
type NotificationFeedResponse struct {
	Notifications []FeedItem `json:"notifications"`
	UnreadCount   int64      `json:"unread_count"`
	TotalCount    int        `json:"total_count"`
}
