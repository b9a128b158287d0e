package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/lifecycle"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/observability"
	"github.com/noah-isme/gau-id-api/internal/repository"
)

var (
	// ErrProfileNotFound indicates the student has no application.
	ErrProfileNotFound = errors.New("student profile not found")
	// ErrPhotoTooLarge indicates the photo exceeded the configured limit.
	ErrPhotoTooLarge = errors.New("photo exceeds maximum allowed size")
	// ErrPhotoTypeNotAllowed indicates the photo is not a JPEG, PNG or WebP image.
	ErrPhotoTypeNotAllowed = errors.New("photo must be a JPEG, PNG or WebP image")
	// ErrPhotoStorageUnavailable indicates no photo store is configured.
	ErrPhotoStorageUnavailable = errors.New("photo storage is not configured")
)

const defaultPhotoMaxBytes int64 = 5 * 1024 * 1024

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// PhotoUploader stores the ID card portrait of an account and returns its URL.
type PhotoUploader interface {
	UploadPhoto(ctx context.Context, accountID uint, reader io.Reader) (string, error)
}

// StudentService serves the student's own profile and application.
type StudentService interface {
	Profile(ctx context.Context, accountID uint) (dto.AccountResponse, error)
	UpdateProfile(ctx context.Context, accountID uint, req dto.ProfileUpdateRequest) (dto.ProfileUpdateResponse, error)
	UploadPhoto(ctx context.Context, accountID uint, reader io.Reader) (dto.PhotoResponse, error)
	Status(ctx context.Context, accountID uint) (dto.StatusResponse, error)
	Resubmit(ctx context.Context, accountID uint) (dto.ResubmitResponse, error)
	DashboardStats(ctx context.Context, accountID uint) (dto.DashboardStatsResponse, error)
}

type studentService struct {
	accounts     repository.AccountRepository
	applications repository.ApplicationRepository
	photos       PhotoUploader
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	maxPhoto     int64
	now          func() time.Time
}

// NewStudentService constructs the student self-service.
func NewStudentService(accounts repository.AccountRepository, applications repository.ApplicationRepository, photos PhotoUploader, validate *validator.Validate, maxPhotoBytes int64, logger zerolog.Logger) StudentService {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = defaultPhotoMaxBytes
	}
	return &studentService{
		accounts:     accounts,
		applications: applications,
		photos:       photos,
		validator:    validate,
		logger:       logger.With().Str("component", "student_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gau-id-api/internal/service/student"),
		maxPhoto:     maxPhotoBytes,
		now:          time.Now,
	}
}

func (s *studentService) load(ctx context.Context, accountID uint) (models.Account, models.Application, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, models.Application{}, ErrProfileNotFound
		}
		return models.Account{}, models.Application{}, err
	}
	if account.Application == nil {
		return models.Account{}, models.Application{}, ErrProfileNotFound
	}
	return account, *account.Application, nil
}

func (s *studentService) Profile(ctx context.Context, accountID uint) (dto.AccountResponse, error) {
	account, _, err := s.load(ctx, accountID)
	if err != nil {
		return dto.AccountResponse{}, err
	}
	return dto.NewAccountWithProfile(account), nil
}

func (s *studentService) UpdateProfile(ctx context.Context, accountID uint, req dto.ProfileUpdateRequest) (dto.ProfileUpdateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileUpdateResponse{}, err
	}

	account, app, err := s.load(ctx, accountID)
	if err != nil {
		return dto.ProfileUpdateResponse{}, err
	}

	updated := make([]string, 0, 9)
	appUpdates := map[string]interface{}{}
	setText := func(field string, value *string, current string) {
		if value == nil {
			return
		}
		next := strings.TrimSpace(*value)
		if next != current {
			appUpdates[field] = next
			updated = append(updated, field)
		}
	}

	setText("phone", req.Phone, app.Phone)
	setText("address", req.Address, app.Address)
	setText("next_of_kin", req.NextOfKin, app.NextOfKin)
	setText("next_of_kin_phone", req.NextOfKinPhone, app.NextOfKinPhone)
	setText("course", req.Course, app.Course)
	setText("year_of_study", req.YearOfStudy, app.YearOfStudy)

	if req.DateOfBirth != nil && strings.TrimSpace(*req.DateOfBirth) != "" {
		dob, err := time.Parse(dto.DateLayout, strings.TrimSpace(*req.DateOfBirth))
		if err != nil {
			return dto.ProfileUpdateResponse{}, ErrInvalidInput
		}
		if app.DateOfBirth == nil || app.DateOfBirth.Format(dto.DateLayout) != dob.Format(dto.DateLayout) {
			appUpdates["date_of_birth"] = dob
			updated = append(updated, "date_of_birth")
		}
	}

	accountUpdates := map[string]interface{}{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != account.Name {
			accountUpdates["name"] = name
			updated = append(updated, "name")
		}
	}
	if req.Department != nil {
		if department := strings.TrimSpace(*req.Department); department != account.Department {
			accountUpdates["department"] = department
			updated = append(updated, "department")
		}
	}

	if len(updated) == 0 {
		return dto.ProfileUpdateResponse{UpdatedFields: updated, Profile: dto.NewAccountWithProfile(account)}, nil
	}

	if len(appUpdates) > 0 {
		appUpdates["updated_at"] = s.now().UTC()
		if _, err := s.applications.UpdateProfile(ctx, app.ID, appUpdates); err != nil {
			return dto.ProfileUpdateResponse{}, err
		}
	}
	if err := s.accounts.UpdateFields(ctx, account.ID, accountUpdates); err != nil {
		return dto.ProfileUpdateResponse{}, err
	}

	s.logger.Info().Uint("account_id", account.ID).Strs("fields", updated).Msg("profile updated")

	refreshed, _, err := s.load(ctx, accountID)
	if err != nil {
		return dto.ProfileUpdateResponse{}, err
	}
	return dto.ProfileUpdateResponse{UpdatedFields: updated, Profile: dto.NewAccountWithProfile(refreshed)}, nil
}

func (s *studentService) UploadPhoto(ctx context.Context, accountID uint, reader io.Reader) (dto.PhotoResponse, error) {
	ctx, span := s.tracer.Start(ctx, "student.upload_photo")
	span.SetAttributes(
		attribute.Int64("photo.account_id", int64(accountID)),
		attribute.Int64("photo.max_bytes", s.maxPhoto),
	)
	defer span.End()

	if s.photos == nil {
		span.SetStatus(codes.Error, "storage unavailable")
		return dto.PhotoResponse{}, ErrPhotoStorageUnavailable
	}
	if reader == nil {
		return dto.PhotoResponse{}, ErrInvalidInput
	}

	_, app, err := s.load(ctx, accountID)
	if err != nil {
		return dto.PhotoResponse{}, err
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(reader, s.maxPhoto+1)); err != nil {
		span.RecordError(err)
		return dto.PhotoResponse{}, err
	}
	if int64(buf.Len()) > s.maxPhoto {
		span.SetStatus(codes.Error, "payload too large")
		return dto.PhotoResponse{}, ErrPhotoTooLarge
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	if idx := strings.Index(detected, ";"); idx >= 0 {
		detected = detected[:idx]
	}
	span.SetAttributes(attribute.String("photo.detected_mime", detected))
	if _, ok := allowedPhotoTypes[detected]; !ok {
		span.SetStatus(codes.Error, "type not allowed")
		return dto.PhotoResponse{}, ErrPhotoTypeNotAllowed
	}

	url, err := s.photos.UploadPhoto(ctx, accountID, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return dto.PhotoResponse{}, err
	}

	if _, err := s.applications.UpdateProfile(ctx, app.ID, map[string]interface{}{
		"photo_url":  url,
		"updated_at": s.now().UTC(),
	}); err != nil {
		span.RecordError(err)
		return dto.PhotoResponse{}, err
	}

	s.logger.Info().Uint("account_id", accountID).Msg("photo uploaded")
	return dto.PhotoResponse{PhotoURL: url}, nil
}

func (s *studentService) Status(ctx context.Context, accountID uint) (dto.StatusResponse, error) {
	_, app, err := s.load(ctx, accountID)
	if err != nil {
		return dto.StatusResponse{}, err
	}

	milestones := lifecycle.History(app)
	history := make([]dto.MilestoneResponse, 0, len(milestones))
	for _, milestone := range milestones {
		history = append(history, dto.MilestoneResponse{
			Status:  milestone.Status,
			Date:    milestone.Date,
			Message: milestone.Message,
		})
	}

	response := dto.StatusResponse{
		CurrentStatus:      app.Status,
		ProgressPercentage: lifecycle.Progress(app.Status),
		IDNumber:           app.IDNumber,
		SubmittedDate:      app.SubmittedAt,
		ExpiryDate:         app.ExpiryDate,
		NextSteps:          lifecycle.NextStep(app.Status),
		StatusHistory:      history,
		AdminNotes:         app.AdminNotes,
	}
	if app.Status == models.StatusRejected {
		response.RejectionReason = app.RejectionReason
	}
	return response, nil
}

func (s *studentService) Resubmit(ctx context.Context, accountID uint) (dto.ResubmitResponse, error) {
	account, app, err := s.load(ctx, accountID)
	if err != nil {
		return dto.ResubmitResponse{}, err
	}

	actor := lifecycle.Actor{ID: account.ID, Role: account.Role}
	input := lifecycle.Input{OwnerID: app.AccountID}
	result, err := lifecycle.Transition(app.Status, lifecycle.ActionResubmit, actor, input)
	if err != nil {
		return dto.ResubmitResponse{}, err
	}

	version := app.Version
	lifecycle.Apply(&app, result, input, s.now().UTC())
	if err := s.applications.ApplyTransition(ctx, &app, result.From, version); err != nil {
		if errors.Is(err, repository.ErrStaleApplication) {
			return dto.ResubmitResponse{}, ErrApplicationConflict
		}
		return dto.ResubmitResponse{}, err
	}

	observability.Transitions().WithLabelValues(string(result.Action), string(result.To)).Inc()
	s.logger.Info().Uint("account_id", account.ID).Msg("application resubmitted")

	return dto.ResubmitResponse{Status: app.Status, SubmittedAt: app.SubmittedAt}, nil
}

func (s *studentService) DashboardStats(ctx context.Context, accountID uint) (dto.DashboardStatsResponse, error) {
	account, app, err := s.load(ctx, accountID)
	if err != nil {
		return dto.DashboardStatsResponse{}, err
	}

	now := s.now().UTC()
	stats := dto.DashboardStatsResponse{
		ApplicationStatus:    app.Status,
		DaysSinceApplication: wholeDays(now.Sub(app.SubmittedAt)),
		ProfileCompletion:    profileCompletion(account, app),
		IDNumber:             app.IDNumber,
		HasPhoto:             strings.TrimSpace(app.PhotoURL) != "",
		CardIssued:           app.CardIssued,
		CardPrinted:          app.CardPrinted,
	}
	if app.ExpiryDate != nil {
		days := wholeDays(app.ExpiryDate.Sub(now))
		stats.DaysUntilExpiry = &days
	}
	return stats, nil
}

// profileCompletion is the rounded percentage of the twelve profile fields
// that are filled in.
func profileCompletion(account models.Account, app models.Application) int {
	fields := []string{
		account.Name,
		account.RegNumber,
		account.Email,
		account.Department,
		app.Phone,
		app.Address,
		app.NextOfKin,
		app.NextOfKinPhone,
		app.Course,
		app.YearOfStudy,
		app.PhotoURL,
	}
	completed := 0
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			completed++
		}
	}
	if app.DateOfBirth != nil {
		completed++
	}
	total := len(fields) + 1
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// wholeDays floors d to days, rounding towards negative infinity.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
