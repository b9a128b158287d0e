package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
)

const (
	studentDetailActivityLimit   = 20
	dashboardRecentActivityLimit = 10
)

// AdminStudentService exposes student management for administrators and staff.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	Detail(ctx context.Context, id uint) (dto.AdminStudentDetailResponse, error)
	Remove(ctx context.Context, actor ActivityActor, id uint, req dto.RemoveStudentRequest) (string, error)
	Dashboard(ctx context.Context) (dto.AdminDashboardResponse, error)
}

type adminStudentService struct {
	accounts     repository.AccountRepository
	applications repository.ApplicationRepository
	activities   repository.ActivityLogRepository
	activity     ActivityRecorder
	logger       zerolog.Logger
}

// NewAdminStudentService constructs the admin student service.
func NewAdminStudentService(accounts repository.AccountRepository, applications repository.ApplicationRepository, activities repository.ActivityLogRepository, activity ActivityRecorder, logger zerolog.Logger) AdminStudentService {
	return &adminStudentService{
		accounts:     accounts,
		applications: applications,
		activities:   activities,
		activity:     activity,
		logger:       logger.With().Str("component", "admin_student_service").Logger(),
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	page, perPage := dto.NormalizePage(req.Page, req.PerPage)

	status := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return dto.AdminStudentListResponse{}, ErrInvalidInput
	}

	accounts, total, err := s.accounts.List(ctx, repository.AccountFilter{
		Role:        models.RoleStudent,
		Search:      req.Search,
		Department:  req.Department,
		Status:      status,
		YearOfStudy: strings.TrimSpace(req.YearOfStudy),
		SortBy:      strings.ToLower(strings.TrimSpace(req.SortBy)),
		SortOrder:   req.SortOrder,
		Page:        page,
		PageSize:    perPage,
	})
	if err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, dto.NewAccountWithProfile(account))
	}

	return dto.AdminStudentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(page, perPage, total),
	}, nil
}

func (s *adminStudentService) Detail(ctx context.Context, id uint) (dto.AdminStudentDetailResponse, error) {
	account, err := s.loadStudent(ctx, id)
	if err != nil {
		return dto.AdminStudentDetailResponse{}, err
	}

	activities, _, err := s.activities.List(ctx, repository.ActivityLogFilter{
		Page:            1,
		PageSize:        studentDetailActivityLimit,
		TargetAccountID: &account.ID,
	})
	if err != nil {
		return dto.AdminStudentDetailResponse{}, err
	}

	return dto.AdminStudentDetailResponse{
		AccountResponse: dto.NewAccountWithProfile(account),
		AdminActivities: dto.NewAdminActivityResponseSlice(activities),
	}, nil
}

// Remove deactivates the student, or deletes the account when req.Permanent
// is set. It returns the message describing what happened.
func (s *adminStudentService) Remove(ctx context.Context, actor ActivityActor, id uint, req dto.RemoveStudentRequest) (string, error) {
	account, err := s.loadStudent(ctx, id)
	if err != nil {
		return "", err
	}

	action := "deactivate_student"
	message := "Student account deactivated"
	target := &account.ID
	if req.Permanent {
		if err := s.accounts.Delete(ctx, account.ID); err != nil {
			return "", err
		}
		action = "delete_student"
		message = "Student account permanently deleted"
		target = nil
	} else if err := s.accounts.Deactivate(ctx, account.ID); err != nil {
		return "", err
	}

	title := "Deactivate Student"
	if req.Permanent {
		title = "Delete Student"
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:           actor,
		Action:          action,
		TargetAccountID: target,
		Details:         fmt.Sprintf("%s: %s (%s)", title, account.Name, account.RegNumber),
		Metadata:        map[string]interface{}{"student_id": account.ID, "permanent": req.Permanent},
	})

	s.logger.Info().Uint("student_id", account.ID).Uint("actor_id", actor.ID).Str("action", action).Msg("student removed")
	return message, nil
}

func (s *adminStudentService) Dashboard(ctx context.Context) (dto.AdminDashboardResponse, error) {
	students, err := s.accounts.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}
	counts, err := s.applications.CountByStatus(ctx)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}
	recent, _, err := s.activities.List(ctx, repository.ActivityLogFilter{Page: 1, PageSize: dashboardRecentActivityLimit})
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	breakdown := make(map[string]int64, len(models.ApplicationStatuses()))
	var applications int64
	for _, status := range models.ApplicationStatuses() {
		breakdown[string(status)] = counts[status]
		applications += counts[status]
	}

	return dto.AdminDashboardResponse{
		TotalStudents:     students,
		TotalApplications: applications,
		StatusBreakdown:   breakdown,
		RecentActivities:  dto.NewAdminActivityResponseSlice(recent),
	}, nil
}

func (s *adminStudentService) loadStudent(ctx context.Context, id uint) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, ErrStudentNotFound
		}
		return models.Account{}, err
	}
	if account.Role != models.RoleStudent {
		return models.Account{}, ErrStudentNotFound
	}
	return account, nil
}
