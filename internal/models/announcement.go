package models

import "time"

// AnnouncementPriority orders announcements in feeds.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
	PriorityUrgent AnnouncementPriority = "urgent"
)

// Weight ranks priorities, higher first.
func (p AnnouncementPriority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// AnnouncementAudience selects which roles see an announcement.
type AnnouncementAudience string

const (
	AudienceAll     AnnouncementAudience = "all"
	AudienceStudent AnnouncementAudience = "student"
	AudienceStaff   AnnouncementAudience = "staff"
	AudienceAdmin   AnnouncementAudience = "admin"
)

// Announcement is a broadcast message authored by an administrator.
type Announcement struct {
	ID         uint                 `gorm:"primaryKey" json:"id"`
	Title      string               `gorm:"size:200;not null" json:"title"`
	Message    string               `gorm:"type:text;not null" json:"message"`
	Priority   AnnouncementPriority `gorm:"size:10;not null;default:medium" json:"priority"`
	TargetRole AnnouncementAudience `gorm:"size:20;not null;default:all;index" json:"target_role"`
	IsActive   bool                 `gorm:"not null;default:true;index" json:"is_active"`
	ExpiresAt  *time.Time           `gorm:"index" json:"expires_at"`
	CreatedBy  uint                 `gorm:"not null" json:"created_by"`
	Creator    *Account             `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt  time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// VisibleTo reports whether the announcement is shown to role at now.
func (a Announcement) VisibleTo(role Role, now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return a.TargetRole == AudienceAll || string(a.TargetRole) == string(role)
}
