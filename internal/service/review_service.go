package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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
	// ErrStudentNotFound indicates the target is not a student with an application.
	ErrStudentNotFound = errors.New("student not found")
	// ErrApplicationConflict indicates a concurrent update won the race.
	ErrApplicationConflict = errors.New("application was modified by another request")
	// ErrNoEligibleStudents indicates a bulk approval matched nothing.
	ErrNoEligibleStudents = errors.New("no eligible students found for approval")
)

const defaultBulkApproveNotes = "Bulk approved"

var activityActions = map[lifecycle.Action]string{
	lifecycle.ActionReview:  "review_application",
	lifecycle.ActionApprove: "approve_application",
	lifecycle.ActionReject:  "reject_application",
	lifecycle.ActionPrint:   "print_card",
	lifecycle.ActionIssue:   "issue_card",
}

// ReviewService drives the administrator side of the application lifecycle.
type ReviewService interface {
	Review(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error)
	Approve(ctx context.Context, actor ActivityActor, studentID uint, req dto.ApproveRequest) (dto.TransitionResponse, error)
	Reject(ctx context.Context, actor ActivityActor, studentID uint, req dto.RejectRequest) (dto.TransitionResponse, error)
	Print(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error)
	Issue(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error)
	BulkApprove(ctx context.Context, actor ActivityActor, req dto.BulkApproveRequest) (dto.BulkApproveResponse, error)
}

type reviewService struct {
	accounts     repository.AccountRepository
	applications repository.ApplicationRepository
	validator    *validator.Validate
	activity     ActivityRecorder
	notifier     Notifier
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewReviewService constructs the review workflow service.
func NewReviewService(accounts repository.AccountRepository, applications repository.ApplicationRepository, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, logger zerolog.Logger) ReviewService {
	return &reviewService{
		accounts:     accounts,
		applications: applications,
		validator:    validate,
		activity:     activity,
		notifier:     notifier,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "review_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gau-id-api/internal/service/review"),
		now:          time.Now,
	}
}

func (s *reviewService) Review(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error) {
	return s.transition(ctx, actor, studentID, lifecycle.ActionReview, lifecycle.Input{})
}

func (s *reviewService) Approve(ctx context.Context, actor ActivityActor, studentID uint, req dto.ApproveRequest) (dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, err
	}
	return s.transition(ctx, actor, studentID, lifecycle.ActionApprove, lifecycle.Input{Notes: req.Notes})
}

func (s *reviewService) Reject(ctx context.Context, actor ActivityActor, studentID uint, req dto.RejectRequest) (dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, err
	}
	return s.transition(ctx, actor, studentID, lifecycle.ActionReject, lifecycle.Input{Notes: req.Notes, Reason: req.Reason})
}

func (s *reviewService) Print(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error) {
	return s.transition(ctx, actor, studentID, lifecycle.ActionPrint, lifecycle.Input{})
}

func (s *reviewService) Issue(ctx context.Context, actor ActivityActor, studentID uint) (dto.TransitionResponse, error) {
	return s.transition(ctx, actor, studentID, lifecycle.ActionIssue, lifecycle.Input{})
}

func (s *reviewService) transition(ctx context.Context, actor ActivityActor, studentID uint, action lifecycle.Action, input lifecycle.Input) (dto.TransitionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review."+string(action))
	span.SetAttributes(
		attribute.Int64("review.student_id", int64(studentID)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
		attribute.String("review.actor_role", actor.Role),
	)
	defer span.End()

	account, err := s.loadStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.TransitionResponse{}, err
	}
	app := *account.Application

	input = s.cleanInput(input)
	input.OwnerID = account.ID
	result, err := lifecycle.Transition(app.Status, action, lifecycleActor(actor), input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_rejected")
		return dto.TransitionResponse{}, err
	}

	version := app.Version
	lifecycle.Apply(&app, result, input, s.now().UTC())
	if err := s.applications.ApplyTransition(ctx, &app, result.From, version); err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrStaleApplication) {
			span.SetStatus(codes.Error, "conflict")
			return dto.TransitionResponse{}, ErrApplicationConflict
		}
		span.SetStatus(codes.Error, "persist_failed")
		return dto.TransitionResponse{}, err
	}

	span.SetAttributes(
		attribute.String("review.from", string(result.From)),
		attribute.String("review.to", string(result.To)),
	)
	s.afterCommit(ctx, actor, account, app, result)

	return dto.TransitionResponse{
		StudentID:   account.ID,
		StudentName: account.Name,
		From:        result.From,
		Profile:     dto.NewApplicationResponse(app),
	}, nil
}

// afterCommit runs the side effects of a committed transition. None of them
// can fail the request.
func (s *reviewService) afterCommit(ctx context.Context, actor ActivityActor, account models.Account, app models.Application, result lifecycle.Result) {
	observability.Transitions().WithLabelValues(string(result.Action), string(result.To)).Inc()
	s.logger.Info().
		Uint("student_id", account.ID).
		Uint("actor_id", actor.ID).
		Str("from", string(result.From)).
		Str("to", string(result.To)).
		Msg("application status changed")

	metadata := map[string]interface{}{
		"previous_status": string(result.From),
		"status":          string(result.To),
		"id_number":       app.IDNumber,
	}
	if app.AdminNotes != nil {
		metadata["notes"] = *app.AdminNotes
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:           actor,
		Action:          activityActions[result.Action],
		TargetAccountID: &account.ID,
		Details:         activityDetails(result, account, app),
		Metadata:        metadata,
	})

	if s.notifier == nil {
		return
	}
	if event, ok := statusEvent(result, app); ok {
		s.notifier.Notify(ctx, account, event)
	}
}

func activityDetails(result lifecycle.Result, account models.Account, app models.Application) string {
	switch result.Action {
	case lifecycle.ActionApprove:
		return fmt.Sprintf("Approved ID application for %s (%s)", account.Name, account.RegNumber)
	case lifecycle.ActionReject:
		reason := ""
		if app.RejectionReason != nil {
			reason = *app.RejectionReason
		}
		return fmt.Sprintf("Rejected ID application for %s: %s", account.Name, reason)
	case lifecycle.ActionReview:
		return fmt.Sprintf("Started review of %s (%s)", account.Name, account.RegNumber)
	case lifecycle.ActionPrint:
		return fmt.Sprintf("Printed ID card %s for %s", app.IDNumber, account.Name)
	case lifecycle.ActionIssue:
		return fmt.Sprintf("Issued ID card %s to %s", app.IDNumber, account.Name)
	}
	return string(result.Action)
}

func (s *reviewService) BulkApprove(ctx context.Context, actor ActivityActor, req dto.BulkApproveRequest) (dto.BulkApproveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.bulk_approve")
	span.SetAttributes(
		attribute.Int("review.requested", len(req.StudentIDs)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.BulkApproveResponse{}, err
	}

	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = defaultBulkApproveNotes
	}
	ids := uniqueIDs(req.StudentIDs)

	accounts, err := s.accounts.ListStudentsByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return dto.BulkApproveResponse{}, err
	}

	type pending struct {
		account models.Account
		app     models.Application
		result  lifecycle.Result
		version uint
	}

	found := make(map[uint]models.Account, len(accounts))
	for _, account := range accounts {
		found[account.ID] = account
	}

	now := s.now().UTC()
	var batch []pending
	skipped := make([]uint, 0)
	for _, id := range ids {
		account, ok := found[id]
		if !ok || account.Application == nil {
			skipped = append(skipped, id)
			continue
		}
		input := s.cleanInput(lifecycle.Input{Notes: notes, OwnerID: account.ID})
		result, err := lifecycle.Transition(account.Application.Status, lifecycle.ActionApprove, lifecycleActor(actor), input)
		if err != nil {
			if errors.Is(err, lifecycle.ErrForbidden) {
				span.RecordError(err)
				return dto.BulkApproveResponse{}, err
			}
			skipped = append(skipped, id)
			continue
		}
		app := *account.Application
		version := app.Version
		lifecycle.Apply(&app, result, input, now)
		batch = append(batch, pending{account: account, app: app, result: result, version: version})
	}

	if len(batch) == 0 {
		span.SetStatus(codes.Error, "no_eligible_students")
		return dto.BulkApproveResponse{}, ErrNoEligibleStudents
	}

	err = s.applications.Transaction(ctx, func(tx repository.ApplicationRepository) error {
		for i := range batch {
			if err := tx.ApplyTransition(ctx, &batch[i].app, batch[i].result.From, batch[i].version); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrStaleApplication) {
			span.SetStatus(codes.Error, "conflict")
			return dto.BulkApproveResponse{}, ErrApplicationConflict
		}
		span.SetStatus(codes.Error, "persist_failed")
		return dto.BulkApproveResponse{}, err
	}

	approved := make([]dto.BulkApprovedStudent, 0, len(batch))
	approvedIDs := make([]uint, 0, len(batch))
	for _, item := range batch {
		approvedIDs = append(approvedIDs, item.account.ID)
		observability.Transitions().WithLabelValues(string(item.result.Action), string(item.result.To)).Inc()
		approved = append(approved, dto.BulkApprovedStudent{
			ID:        item.account.ID,
			Name:      item.account.Name,
			RegNumber: item.account.RegNumber,
		})
		if s.notifier != nil {
			if event, ok := statusEvent(item.result, item.app); ok {
				s.notifier.Notify(ctx, item.account, event)
			}
		}
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:    actor,
		Action:   "bulk_approve_applications",
		Details:  fmt.Sprintf("Bulk approved %d applications", len(batch)),
		Metadata: map[string]interface{}{"student_ids": approvedIDs, "skipped_ids": skipped, "notes": notes},
	})

	s.logger.Info().Uint("actor_id", actor.ID).Int("approved", len(batch)).Int("skipped", len(skipped)).Msg("bulk approval committed")
	span.SetAttributes(attribute.Int("review.approved", len(batch)))

	return dto.BulkApproveResponse{
		ApprovedCount:    len(batch),
		ApprovedStudents: approved,
		SkippedIDs:       skipped,
	}, nil
}

func (s *reviewService) loadStudent(ctx context.Context, studentID uint) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, ErrStudentNotFound
		}
		return models.Account{}, err
	}
	if account.Role != models.RoleStudent || account.Application == nil {
		return models.Account{}, ErrStudentNotFound
	}
	return account, nil
}

func (s *reviewService) cleanInput(input lifecycle.Input) lifecycle.Input {
	input.Notes = plainText(s.sanitizer, input.Notes)
	input.Reason = plainText(s.sanitizer, input.Reason)
	return input
}

func lifecycleActor(actor ActivityActor) lifecycle.Actor {
	role, _ := models.ParseRole(actor.Role)
	return lifecycle.Actor{ID: actor.ID, Role: role}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
