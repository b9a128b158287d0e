package dto

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// AnnouncementCreateRequest is the payload for publishing an announcement.
type AnnouncementCreateRequest struct {
	Title      string     `json:"title" validate:"required,min=3,max=200"`
	Message    string     `json:"message" validate:"required,min=1,max=5000"`
	Priority   string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	TargetRole string     `json:"target_role" validate:"omitempty,oneof=all student staff admin"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// AnnouncementListRequest filters administrator announcement listings.
type AnnouncementListRequest struct {
	Page       int
	PerPage    int
	ActiveOnly bool
}

// AnnouncementResponse represents an announcement returned to clients.
type AnnouncementResponse struct {
	ID          uint                        `json:"id"`
	Title       string                      `json:"title"`
	Message     string                      `json:"message"`
	Priority    models.AnnouncementPriority `json:"priority"`
	TargetRole  models.AnnouncementAudience `json:"target_role"`
	IsActive    bool                        `json:"is_active"`
	ExpiresAt   *time.Time                  `json:"expires_at"`
	CreatedBy   uint                        `json:"created_by"`
	CreatorName string                      `json:"creator_name,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// NewAnnouncementResponse converts an announcement model into a DTO.
func NewAnnouncementResponse(item models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:         item.ID,
		Title:      item.Title,
		Message:    item.Message,
		Priority:   item.Priority,
		TargetRole: item.TargetRole,
		IsActive:   item.IsActive,
		ExpiresAt:  item.ExpiresAt,
		CreatedBy:  item.CreatedBy,
		CreatedAt:  item.CreatedAt,
	}
}

// AnnouncementListResponse wraps paginated announcements.
type AnnouncementListResponse struct {
	Items      []AnnouncementResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	CacheHit   bool                   `json:"cache_hit"`
}
