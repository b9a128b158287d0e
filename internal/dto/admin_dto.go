package dto

import (
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// AdminStudentListRequest defines filters for listing students.
type AdminStudentListRequest struct {
	Page        int
	PerPage     int
	Search      string
	Department  string
	Status      string
	YearOfStudy string
	SortBy      string
	SortOrder   string
}

// AdminStudentListResponse wraps a paginated student list.
type AdminStudentListResponse struct {
	Items      []AccountResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// AdminStudentDetailResponse adds recent audit entries to a student.
type AdminStudentDetailResponse struct {
	AccountResponse
	AdminActivities []AdminActivityResponse `json:"admin_activities"`
}

// ApproveRequest carries optional reviewer notes.
type ApproveRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

// RejectRequest requires a reason. The presence check lives in the lifecycle
// so a missing reason is reported before the status.
type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
	Notes  string `json:"notes" validate:"omitempty,max=2000"`
}

// TransitionResponse reports the outcome of a single lifecycle action.
type TransitionResponse struct {
	StudentID   uint                     `json:"student_id"`
	StudentName string                   `json:"student_name"`
	From        models.ApplicationStatus `json:"previous_status"`
	Profile     ApplicationResponse      `json:"profile"`
}

// BulkApproveRequest approves several students at once.
type BulkApproveRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,max=500,dive,gt=0"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

// BulkApprovedStudent identifies one approved student.
type BulkApprovedStudent struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	RegNumber string `json:"reg_number"`
}

// BulkApproveResponse lists approved and skipped students.
type BulkApproveResponse struct {
	ApprovedCount    int                   `json:"approved_count"`
	ApprovedStudents []BulkApprovedStudent `json:"approved_students"`
	SkippedIDs       []uint                `json:"skipped_ids"`
}

// RemoveStudentRequest selects between deactivation and deletion.
type RemoveStudentRequest struct {
	Permanent bool `json:"permanent"`
}

// AdminActivityListRequest filters the audit trail.
type AdminActivityListRequest struct {
	Page            int
	PerPage         int
	ActorID         uint
	TargetAccountID uint
	Action          string
	Since           *time.Time
}

// AdminActivityResponse is the wire form of an audit row.
type AdminActivityResponse struct {
	ID           uint                   `json:"id"`
	AdminID      uint                   `json:"admin_id"`
	ActorRole    string                 `json:"actor_role"`
	Action       string                 `json:"action"`
	TargetUserID *uint                  `json:"target_user_id"`
	Details      string                 `json:"details"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	IPAddress    string                 `json:"ip_address"`
}

// NewAdminActivityResponse converts an activity model into a DTO.
func NewAdminActivityResponse(activity models.AdminActivity) AdminActivityResponse {
	return AdminActivityResponse{
		ID:           activity.ID,
		AdminID:      activity.ActorID,
		ActorRole:    activity.ActorRole,
		Action:       activity.Action,
		TargetUserID: activity.TargetAccountID,
		Details:      activity.Details,
		Metadata:     map[string]interface{}(activity.Metadata),
		Timestamp:    activity.CreatedAt,
		IPAddress:    activity.IPAddress,
	}
}

// NewAdminActivityResponseSlice converts a slice of activity models.
func NewAdminActivityResponseSlice(activities []models.AdminActivity) []AdminActivityResponse {
	out := make([]AdminActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, NewAdminActivityResponse(activity))
	}
	return out
}

// AdminActivityListResponse wraps a paginated audit list.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// AdminDashboardResponse summarises the application queue.
type AdminDashboardResponse struct {
	TotalStudents     int64                   `json:"total_students"`
	TotalApplications int64                   `json:"total_applications"`
	StatusBreakdown   map[string]int64        `json:"status_breakdown"`
	RecentActivities  []AdminActivityResponse `json:"recent_activities"`
}
