package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// SettingRepository stores administrator-editable settings.
type SettingRepository interface {
	List(ctx context.Context) ([]models.SystemSetting, error)
	UpsertBatch(ctx context.Context, settings []models.SystemSetting) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository constructs the settings repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) List(ctx context.Context) ([]models.SystemSetting, error) {
	var settings []models.SystemSetting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) UpsertBatch(ctx context.Context, settings []models.SystemSetting) error {
	if len(settings) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&settings).Error
}
