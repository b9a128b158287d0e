package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// AccountFilter narrows account listings. Application fields filter through
// a join on the student's application.
type AccountFilter struct {
	Role        models.Role
	Search      string
	Department  string
	Status      models.ApplicationStatus
	YearOfStudy string
	SortBy      string
	SortOrder   string
	Page        int
	PageSize    int
}

var accountSortColumns = map[string]string{
	"name":       "accounts.name",
	"reg_number": "accounts.reg_number",
	"department": "accounts.department",
	"created_at": "accounts.created_at",
	"status":     "applications.status",
	"submitted":  "applications.submitted_at",
}

// AccountRepository persists accounts together with their applications.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	CreateWithApplication(ctx context.Context, account *models.Account, application *models.Application) error
	GetByID(ctx context.Context, id uint) (models.Account, error)
	GetByRegNumber(ctx context.Context, regNumber string) (models.Account, error)
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	Taken(ctx context.Context, email, regNumber string) (emailTaken bool, regTaken bool, err error)
	List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error)
	ListStudentsByIDs(ctx context.Context, ids []uint) ([]models.Account, error)
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Deactivate(ctx context.Context, id uint) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs the account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Omit("Application").Create(account).Error
}

func (r *accountRepository) CreateWithApplication(ctx context.Context, account *models.Account, application *models.Application) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Application").Create(account).Error; err != nil {
			return err
		}
		application.AccountID = account.ID
		if err := tx.Create(application).Error; err != nil {
			return err
		}
		account.Application = application
		return nil
	})
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Preload("Application").First(&account, id).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) GetByRegNumber(ctx context.Context, regNumber string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("reg_number = ?", regNumber).First(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) Taken(ctx context.Context, email, regNumber string) (bool, bool, error) {
	var emailCount, regCount int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&emailCount).Error; err != nil {
		return false, false, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("reg_number = ?", regNumber).Count(&regCount).Error; err != nil {
		return false, false, err
	}
	return emailCount > 0, regCount > 0, nil
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]models.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Account{}).
		Joins("LEFT JOIN applications ON applications.account_id = accounts.id")

	if filter.Role != "" {
		query = query.Where("accounts.role = ?", filter.Role)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(accounts.name) LIKE ? OR LOWER(accounts.reg_number) LIKE ? OR LOWER(accounts.email) LIKE ?", like, like, like)
	}
	if department := strings.ToLower(strings.TrimSpace(filter.Department)); department != "" {
		query = query.Where("LOWER(accounts.department) LIKE ?", "%"+department+"%")
	}
	if filter.Status != "" {
		query = query.Where("applications.status = ?", filter.Status)
	}
	if filter.YearOfStudy != "" {
		query = query.Where("applications.year_of_study = ?", filter.YearOfStudy)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := accountSortColumns[filter.SortBy]
	if !ok {
		column = accountSortColumns["created_at"]
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	query = paginate(query.Select("accounts.*").Order(fmt.Sprintf("%s %s, accounts.id %s", column, direction, direction)), filter.Page, filter.PageSize)

	var accounts []models.Account
	if err := query.Preload("Application").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *accountRepository) ListStudentsByIDs(ctx context.Context, ids []uint) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Preload("Application").
		Where("id IN ? AND role = ?", ids, models.RoleStudent).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.updateOne(ctx, id, updates)
}

func (r *accountRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("role = ?", role).Count(&total).Error
	return total, err
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateOne(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (r *accountRepository) Deactivate(ctx context.Context, id uint) error {
	return r.updateOne(ctx, id, map[string]interface{}{"is_active": false})
}

func (r *accountRepository) updateOne(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the account, its application and its notifications.
// Activity rows that reference the account are kept.
func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Account{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
