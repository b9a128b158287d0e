// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gau-id-api/internal/database"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/security"
)

// TestPassword satisfies the password strength rules.
const TestPassword = "Gau#Secure2024"

var (
	dbCounter  atomic.Uint64
	unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	hashOnce   sync.Once
	cachedHash string
	hashErr    error
)

// OpenDB returns a migrated in-memory SQLite database private to t.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("%s_%d", unsafeName.ReplaceAllString(t.Name(), "_"), dbCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Logger discards output.
func Logger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// StudentOption customises a seeded student.
type StudentOption func(*models.Account, *models.Application)

// WithStatus sets the seeded application's status.
func WithStatus(status models.ApplicationStatus) StudentOption {
	return func(_ *models.Account, app *models.Application) {
		app.Status = status
	}
}

// WithSubmittedAt sets the seeded application's submission time.
func WithSubmittedAt(at time.Time) StudentOption {
	return func(_ *models.Account, app *models.Application) {
		app.SubmittedAt = at
	}
}

// SeedStudent inserts a student account with its application.
func SeedStudent(t testing.TB, db *gorm.DB, regNumber string, opts ...StudentOption) (models.Account, models.Application) {
	t.Helper()

	now := time.Now().UTC()
	account := models.Account{
		Name:         "Student " + regNumber,
		RegNumber:    regNumber,
		Email:        fmt.Sprintf("s%d@student.gau.ac.ke", dbCounter.Add(1)),
		PasswordHash: passwordHash(t),
		Department:   "Computer Science",
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	app := models.Application{
		Status:      models.StatusPending,
		SubmittedAt: now,
		IDNumber:    models.NewIDNumber(now),
		YearOfStudy: "Year 2",
		Course:      "BSc Computer Science",
		Version:     1,
	}
	for _, opt := range opts {
		opt(&account, &app)
	}

	require.NoError(t, db.Create(&account).Error)
	app.AccountID = account.ID
	require.NoError(t, db.Create(&app).Error)
	account.Application = &app
	return account, app
}

// SeedStaff inserts an active staff or admin account.
func SeedStaff(t testing.TB, db *gorm.DB, regNumber string, role models.Role) models.Account {
	t.Helper()

	account := models.Account{
		Name:         "Officer " + regNumber,
		RegNumber:    regNumber,
		Email:        fmt.Sprintf("officer%d@gau.ac.ke", dbCounter.Add(1)),
		PasswordHash: passwordHash(t),
		Department:   "Administration",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&account).Error)
	return account
}

func passwordHash(t testing.TB) string {
	hashOnce.Do(func() {
		cachedHash, hashErr = security.HashPassword(TestPassword)
	})
	require.NoError(t, hashErr)
	return cachedHash
}
