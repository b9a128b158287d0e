package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

// NotificationRepository stores the personal notifications shown in a
// student's feed.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, accountID uint) (int64, error)
	MarkRead(ctx context.Context, id uint, accountID uint) (models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) owned(ctx context.Context, accountID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("account_id = ?", accountID)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListByAccount returns newest first. Out of range limits fall back to the default page.
func (r *notificationRepository) ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	var notifications []models.Notification
	err := r.owned(ctx, accountID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, accountID uint) (int64, error) {
	var total int64
	err := r.owned(ctx, accountID).Where("read = ?", false).Count(&total).Error
	return total, err
}

// MarkRead flips the read flag on a notification owned by accountID. Marking an
// already read notification is a no-op; someone else's yields gorm.ErrRecordNotFound.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint, accountID uint) (models.Notification, error) {
	if err := r.owned(ctx, accountID).
		Where("id = ? AND read = ?", id, false).
		Update("read", true).Error; err != nil {
		return models.Notification{}, err
	}

	var notification models.Notification
	if err := r.owned(ctx, accountID).Where("id = ?", id).First(&notification).Error; err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}
