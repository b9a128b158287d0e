package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/observability"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/security"
)

var (
	// ErrInvalidCredentials indicates an unknown registration number or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive indicates a deactivated account.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrAddressLocked indicates the client address is temporarily blocked.
	ErrAddressLocked = fmt.Errorf("address locked: %w", security.ErrLockedOut)
	// ErrAccountLocked indicates the account is temporarily blocked.
	ErrAccountLocked = fmt.Errorf("account locked: %w", security.ErrLockedOut)
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrDuplicateRegNumber indicates the registration number is already registered.
	ErrDuplicateRegNumber = errors.New("an account with this registration number already exists")
	// ErrAccountExists indicates an administrator tried to create an existing user.
	ErrAccountExists = errors.New("user already exists")
	// ErrCurrentPasswordIncorrect indicates a failed password change.
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

const defaultYearOfStudy = "Year 1"

// TokenIssuer signs and parses API tokens.
type TokenIssuer interface {
	IssueAccess(account models.Account) (string, auth.Claims, error)
	IssueRefresh(account models.Account) (string, auth.Claims, error)
	ParseRefresh(token string) (auth.Claims, error)
	AccessTTL() time.Duration
}

// AuthService covers registration, login and credential management.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest, meta dto.ClientMeta) (dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (dto.TokenResponse, error)
	Verify(ctx context.Context, accountID uint) (dto.VerifyResponse, error)
	Logout(ctx context.Context, claims auth.Claims, refreshToken string) error
	ChangePassword(ctx context.Context, accountID uint, req dto.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error
	CreateStaff(ctx context.Context, actor ActivityActor, req dto.CreateStaffRequest) (dto.AccountResponse, error)
}

type authService struct {
	accounts  repository.AccountRepository
	tokens    TokenIssuer
	lockout   *security.Lockout
	denylist  security.Denylist
	validator *validator.Validate
	activity  ActivityRecorder
	notifier  Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the authentication service.
func NewAuthService(accounts repository.AccountRepository, tokens TokenIssuer, lockout *security.Lockout, denylist security.Denylist, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, logger zerolog.Logger) AuthService {
	return &authService{
		accounts:  accounts,
		tokens:    tokens,
		lockout:   lockout,
		denylist:  denylist,
		validator: validate,
		activity:  activity,
		notifier:  notifier,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RegisterResponse{}, err
	}

	email := normalizeEmail(req.Email)
	regNumber := normalizeRegNumber(req.RegNumber)
	if err := s.ensureAvailable(ctx, email, regNumber); err != nil {
		return dto.RegisterResponse{}, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return dto.RegisterResponse{}, err
	}

	now := s.now().UTC()
	yearOfStudy := strings.TrimSpace(req.YearOfStudy)
	if yearOfStudy == "" {
		yearOfStudy = defaultYearOfStudy
	}

	account := models.Account{
		Name:         strings.TrimSpace(req.Name),
		RegNumber:    regNumber,
		Email:        email,
		PasswordHash: hash,
		Department:   strings.TrimSpace(req.Department),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	application := models.Application{
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Course:      strings.TrimSpace(req.Course),
		YearOfStudy: yearOfStudy,
		IDNumber:    models.NewIDNumber(now),
		Status:      models.StatusPending,
		SubmittedAt: now,
		Version:     1,
	}

	if err := s.accounts.CreateWithApplication(ctx, &account, &application); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if conflict := s.ensureAvailable(ctx, email, regNumber); conflict != nil {
				return dto.RegisterResponse{}, conflict
			}
		}
		return dto.RegisterResponse{}, err
	}

	s.logger.Info().Uint("account_id", account.ID).Str("reg_number", account.RegNumber).Msg("student registered")
	if s.notifier != nil {
		s.notifier.Notify(ctx, account, welcomeEvent(account))
	}

	return dto.RegisterResponse{
		User:    dto.NewAccountResponse(account),
		Profile: dto.NewApplicationResponse(application),
	}, nil
}

func (s *authService) ensureAvailable(ctx context.Context, email, regNumber string) error {
	emailTaken, regTaken, err := s.accounts.Taken(ctx, email, regNumber)
	if err != nil {
		return err
	}
	if emailTaken {
		return ErrDuplicateEmail
	}
	if regTaken {
		return ErrDuplicateRegNumber
	}
	return nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, meta dto.ClientMeta) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	logger := s.logger.With().Str("ip", meta.IP).Logger()

	if err := s.lockout.CheckAddress(ctx, meta.IP); err != nil {
		if errors.Is(err, security.ErrLockedOut) {
			observability.LoginFailures().WithLabelValues("address_locked").Inc()
			logger.Warn().Msg("login blocked for locked address")
			return dto.LoginResponse{}, ErrAddressLocked
		}
		return dto.LoginResponse{}, err
	}

	regNumber := normalizeRegNumber(req.RegNumber)
	account, err := s.accounts.GetByRegNumber(ctx, regNumber)
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.LoginResponse{}, err
	}

	if found {
		if err := s.lockout.CheckAccount(ctx, account.ID); err != nil {
			if errors.Is(err, security.ErrLockedOut) {
				observability.LoginFailures().WithLabelValues("account_locked").Inc()
				logger.Warn().Uint("account_id", account.ID).Msg("login blocked for locked account")
				return dto.LoginResponse{}, ErrAccountLocked
			}
			return dto.LoginResponse{}, err
		}
	}

	if !found || !security.CheckPassword(account.PasswordHash, req.Password) {
		var accountID uint
		if found {
			accountID = account.ID
		}
		if err := s.lockout.RecordFailure(ctx, meta.IP, accountID); err != nil && !errors.Is(err, security.ErrLockedOut) {
			logger.Error().Err(err).Msg("failed to record login failure")
		}
		observability.LoginFailures().WithLabelValues("invalid_credentials").Inc()
		logger.Warn().Str("reg_number", regNumber).Bool("account_exists", found).Msg("failed login attempt")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		observability.LoginFailures().WithLabelValues("inactive").Inc()
		logger.Warn().Uint("account_id", account.ID).Msg("login attempt on inactive account")
		return dto.LoginResponse{}, ErrAccountInactive
	}

	if err := s.lockout.Reset(ctx, meta.IP, account.ID); err != nil {
		logger.Warn().Err(err).Msg("failed to reset login counters")
	}

	access, _, err := s.tokens.IssueAccess(account)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	refresh, _, err := s.tokens.IssueRefresh(account)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	user := dto.NewAccountResponse(account)
	if account.Role == models.RoleStudent {
		full, err := s.accounts.GetByID(ctx, account.ID)
		if err != nil {
			return dto.LoginResponse{}, err
		}
		user = dto.NewAccountWithProfile(full)
	}

	logger.Info().Uint("account_id", account.ID).Str("role", string(account.Role)).Msg("login successful")

	return dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TokenResponse{}, err
	}

	claims, err := s.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return dto.TokenResponse{}, auth.ErrInvalidToken
	}
	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return dto.TokenResponse{}, err
		}
		if revoked {
			return dto.TokenResponse{}, auth.ErrInvalidToken
		}
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return dto.TokenResponse{}, err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrAccountInactive
		}
		return dto.TokenResponse{}, err
	}
	if !account.IsActive {
		return dto.TokenResponse{}, ErrAccountInactive
	}

	access, _, err := s.tokens.IssueAccess(account)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Verify(ctx context.Context, accountID uint) (dto.VerifyResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.VerifyResponse{}, auth.ErrInvalidToken
		}
		return dto.VerifyResponse{}, err
	}
	if !account.IsActive {
		return dto.VerifyResponse{}, auth.ErrInvalidToken
	}
	return dto.VerifyResponse{User: dto.NewAccountWithProfile(account)}, nil
}

func (s *authService) Logout(ctx context.Context, claims auth.Claims, refreshToken string) error {
	if s.denylist == nil {
		return nil
	}
	if claims.ExpiresAt != nil {
		if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return err
		}
	}

	if refreshToken = strings.TrimSpace(refreshToken); refreshToken != "" {
		refreshClaims, err := s.tokens.ParseRefresh(refreshToken)
		if err == nil && refreshClaims.Subject == claims.Subject && refreshClaims.ExpiresAt != nil {
			if err := s.denylist.Revoke(ctx, refreshClaims.ID, refreshClaims.ExpiresAt.Time); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, accountID uint, req dto.ChangePasswordRequest) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if !security.CheckPassword(account.PasswordHash, req.CurrentPassword) {
		return ErrCurrentPasswordIncorrect
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}

	s.logger.Info().Uint("account_id", account.ID).Msg("password changed")
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Str("email", maskEmailAddress(req.Email)).Msg("password reset lookup failed")
		}
		return nil
	}
	if account.IsActive {
		s.logger.Info().Uint("account_id", account.ID).Str("email", maskEmailAddress(account.Email)).Msg("password reset requested")
	}
	return nil
}

func (s *authService) CreateStaff(ctx context.Context, actor ActivityActor, req dto.CreateStaffRequest) (dto.AccountResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AccountResponse{}, err
	}

	role := models.RoleAdmin
	if req.Role != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok || !parsed.IsReviewer() {
			return dto.AccountResponse{}, ErrInvalidInput
		}
		role = parsed
	}
	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = "Administration"
	}

	email := normalizeEmail(req.Email)
	regNumber := normalizeRegNumber(req.RegNumber)
	emailTaken, regTaken, err := s.accounts.Taken(ctx, email, regNumber)
	if err != nil {
		return dto.AccountResponse{}, err
	}
	if emailTaken || regTaken {
		return dto.AccountResponse{}, ErrAccountExists
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return dto.AccountResponse{}, err
	}

	account := models.Account{
		Name:         strings.TrimSpace(req.Name),
		RegNumber:    regNumber,
		Email:        email,
		PasswordHash: hash,
		Department:   department,
		Role:         role,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, &account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AccountResponse{}, ErrAccountExists
		}
		return dto.AccountResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:           actor,
		Action:          fmt.Sprintf("created_%s_user", role),
		TargetAccountID: &account.ID,
		Details:         fmt.Sprintf("Created %s user: %s", role, account.Email),
		Metadata:        map[string]interface{}{"role": string(role)},
	})

	return dto.NewAccountResponse(account), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeRegNumber(reg string) string {
	return strings.ToUpper(strings.TrimSpace(reg))
}
