package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/security"
	"github.com/noah-isme/gau-id-api/internal/validation"
)

// SeedConfig describes the accounts and content created on an empty database.
type SeedConfig struct {
	AdminName           string
	AdminRegNumber      string
	AdminEmail          string
	AdminPassword       string
	WelcomeAnnouncement bool
}

// SeedResult reports what Bootstrap created.
type SeedResult struct {
	AdminCreated        bool
	AnnouncementCreated bool
}

// SeedService prepares a fresh installation.
type SeedService interface {
	Bootstrap(ctx context.Context) (SeedResult, error)
}

type seedService struct {
	accounts      repository.AccountRepository
	announcements repository.AnnouncementRepository
	cfg           SeedConfig
	logger        zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(accounts repository.AccountRepository, announcements repository.AnnouncementRepository, cfg SeedConfig, logger zerolog.Logger) SeedService {
	if strings.TrimSpace(cfg.AdminName) == "" {
		cfg.AdminName = "System Administrator"
	}
	return &seedService{
		accounts:      accounts,
		announcements: announcements,
		cfg:           cfg,
		logger:        logger.With().Str("component", "seed_service").Logger(),
	}
}

// Bootstrap creates the first administrator when no admin exists and a
// password is configured. It never touches existing accounts.
func (s *seedService) Bootstrap(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	admin, created, err := s.ensureAdmin(ctx)
	if err != nil {
		return result, err
	}
	result.AdminCreated = created

	if s.cfg.WelcomeAnnouncement && admin.ID != 0 {
		created, err := s.ensureWelcome(ctx, admin.ID)
		if err != nil {
			return result, err
		}
		result.AnnouncementCreated = created
	}

	return result, nil
}

func (s *seedService) ensureAdmin(ctx context.Context) (models.Account, bool, error) {
	admins, err := s.accounts.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return models.Account{}, false, err
	}
	if admins > 0 {
		s.logger.Debug().Int64("admins", admins).Msg("administrator already present")
		return models.Account{}, false, nil
	}
	if s.cfg.AdminPassword == "" {
		s.logger.Warn().Msg("no administrator exists and no bootstrap password is configured")
		return models.Account{}, false, nil
	}

	regNumber := strings.ToUpper(strings.TrimSpace(s.cfg.AdminRegNumber))
	email := strings.ToLower(strings.TrimSpace(s.cfg.AdminEmail))
	if !validation.IsStaffRegNumber(regNumber) || !validation.IsUniversityEmail(email) {
		return models.Account{}, false, fmt.Errorf("%w: bootstrap admin needs a staff reg number and university email", ErrInvalidInput)
	}
	if problems := security.PasswordProblems(s.cfg.AdminPassword); len(problems) > 0 {
		return models.Account{}, false, fmt.Errorf("%w: bootstrap admin password: %s", ErrInvalidInput, strings.Join(problems, ", "))
	}

	hash, err := security.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return models.Account{}, false, err
	}

	admin := models.Account{
		Name:         strings.TrimSpace(s.cfg.AdminName),
		RegNumber:    regNumber,
		Email:        email,
		PasswordHash: hash,
		Department:   "Administration",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, &admin); err != nil {
		return models.Account{}, false, err
	}

	s.logger.Info().Uint("account_id", admin.ID).Str("reg_number", admin.RegNumber).Msg("bootstrap administrator created")
	return admin, true, nil
}

func (s *seedService) ensureWelcome(ctx context.Context, adminID uint) (bool, error) {
	_, total, err := s.announcements.List(ctx, repository.AnnouncementFilter{Page: 1, PageSize: 1})
	if err != nil {
		return false, err
	}
	if total > 0 {
		return false, nil
	}

	welcome := models.Announcement{
		Title:      "Welcome to GAU ID View",
		Message:    "Submit your student ID application and track its progress from your dashboard.",
		Priority:   models.PriorityMedium,
		TargetRole: models.AudienceAll,
		IsActive:   true,
		CreatedBy:  adminID,
	}
	if err := s.announcements.Create(ctx, &welcome); err != nil {
		return false, err
	}

	s.logger.Info().Uint("announcement_id", welcome.ID).Msg("welcome announcement seeded")
	return true, nil
}
