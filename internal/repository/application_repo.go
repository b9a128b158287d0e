package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// ErrStaleApplication means the row's status or version moved since it was read.
var ErrStaleApplication = errors.New("application changed since it was read")

// ApplicationRepository persists ID card applications.
type ApplicationRepository interface {
	GetByAccountID(ctx context.Context, accountID uint) (models.Application, error)
	UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) (models.Application, error)
	// ApplyTransition writes the lifecycle fields of app only if the stored
	// row still has status from and the given version.
	ApplyTransition(ctx context.Context, app *models.Application, from models.ApplicationStatus, version uint) error
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error)
	Transaction(ctx context.Context, fn func(repo ApplicationRepository) error) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository constructs the application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) GetByAccountID(ctx context.Context, accountID uint) (models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&app).Error; err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (r *applicationRepository) UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) (models.Application, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return models.Application{}, result.Error
		}
		if result.RowsAffected == 0 {
			return models.Application{}, gorm.ErrRecordNotFound
		}
	}

	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (r *applicationRepository) ApplyTransition(ctx context.Context, app *models.Application, from models.ApplicationStatus, version uint) error {
	next := version + 1
	result := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND status = ? AND version = ?", app.ID, from, version).
		Updates(map[string]interface{}{
			"status":           app.Status,
			"submitted_at":     app.SubmittedAt,
			"approved_at":      app.ApprovedAt,
			"expiry_date":      app.ExpiryDate,
			"printed_at":       app.PrintedAt,
			"issued_at":        app.IssuedAt,
			"card_printed":     app.CardPrinted,
			"card_issued":      app.CardIssued,
			"admin_notes":      app.AdminNotes,
			"rejection_reason": app.RejectionReason,
			"version":          next,
			"updated_at":       app.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleApplication
	}
	app.Version = next
	return nil
}

func (r *applicationRepository) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error) {
	var rows []struct {
		Status models.ApplicationStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Application{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *applicationRepository) Transaction(ctx context.Context, fn func(repo ApplicationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&applicationRepository{db: tx})
	})
}
