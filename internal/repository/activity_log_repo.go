package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// ActivityLogFilter narrows activity log queries.
type ActivityLogFilter struct {
	Page            int
	PageSize        int
	ActorID         *uint
	TargetAccountID *uint
	Action          string
	Since           *time.Time
}

// ActivityLogRepository persists the admin audit trail. Rows are never
// updated or deleted.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.AdminActivity) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.AdminActivity, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.AdminActivity) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.AdminActivity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminActivity{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.TargetAccountID != nil {
		query = query.Where("target_account_id = ?", *filter.TargetAccountID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AdminActivity
	if err := paginate(query, filter.Page, filter.PageSize).Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
