// Package lifecycle owns the ID card application state machine. Every status
// change goes through Transition, which validates the move, and Apply, which
// writes the status together with its dependent fields.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// ValidityDays is how long an issued card stays valid, counted from the
// calendar day the application was submitted.
const ValidityDays = 365

var (
	// ErrIllegalTransition indicates the action is not allowed from the current status.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrReasonRequired indicates a rejection without a reason.
	ErrReasonRequired = errors.New("rejection reason is required")
	// ErrForbidden indicates the actor may not perform the action.
	ErrForbidden = errors.New("actor is not allowed to perform this action")
	// ErrUnknownAction indicates an action outside the lifecycle vocabulary.
	ErrUnknownAction = errors.New("unknown lifecycle action")
)

// Action names a lifecycle command.
type Action string

const (
	ActionReview   Action = "review"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionResubmit Action = "resubmit"
	ActionPrint    Action = "print"
	ActionIssue    Action = "issue"
)

// Actor identifies who requested a transition.
type Actor struct {
	ID   uint
	Role models.Role
}

// Input carries the request payload of a transition. OwnerID is the account
// that owns the application.
type Input struct {
	Notes   string
	Reason  string
	OwnerID uint
}

// Effect is a set of field updates that accompany a status change.
type Effect uint16

const (
	EffectStampApproval Effect = 1 << iota
	EffectSetExpiry
	EffectSetNotes
	EffectClearNotes
	EffectSetRejection
	EffectClearRejection
	EffectClearApproval
	EffectResetSubmission
	EffectStampPrinted
	EffectStampIssued
)

// Has reports whether all bits of f are present.
func (e Effect) Has(f Effect) bool {
	return e&f == f
}

// Result describes an accepted transition.
type Result struct {
	Action  Action
	From    models.ApplicationStatus
	To      models.ApplicationStatus
	Effects Effect
}

// TransitionError reports a rejected move between two statuses.
type TransitionError struct {
	Action Action
	From   models.ApplicationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an application that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

type rule struct {
	from      []models.ApplicationStatus
	to        models.ApplicationStatus
	roles     []models.Role
	ownerOnly bool
	effects   Effect
}

var rules = map[Action]rule{
	ActionReview: {
		from:  []models.ApplicationStatus{models.StatusPending},
		to:    models.StatusReviewing,
		roles: []models.Role{models.RoleAdmin, models.RoleStaff},
	},
	ActionApprove: {
		from:    []models.ApplicationStatus{models.StatusPending, models.StatusReviewing},
		to:      models.StatusApproved,
		roles:   []models.Role{models.RoleAdmin, models.RoleStaff},
		effects: EffectStampApproval | EffectSetExpiry | EffectSetNotes | EffectClearRejection,
	},
	ActionReject: {
		from:    []models.ApplicationStatus{models.StatusPending, models.StatusReviewing},
		to:      models.StatusRejected,
		roles:   []models.Role{models.RoleAdmin, models.RoleStaff},
		effects: EffectSetRejection | EffectSetNotes | EffectClearApproval,
	},
	ActionResubmit: {
		from:      []models.ApplicationStatus{models.StatusRejected},
		to:        models.StatusPending,
		ownerOnly: true,
		effects:   EffectResetSubmission | EffectClearRejection | EffectClearNotes | EffectClearApproval,
	},
	ActionPrint: {
		from:    []models.ApplicationStatus{models.StatusApproved},
		to:      models.StatusPrinted,
		roles:   []models.Role{models.RoleAdmin, models.RoleStaff},
		effects: EffectStampPrinted,
	},
	ActionIssue: {
		from:    []models.ApplicationStatus{models.StatusPrinted},
		to:      models.StatusIssued,
		roles:   []models.Role{models.RoleAdmin, models.RoleStaff},
		effects: EffectStampIssued,
	},
}

// Allowed lists the actions that may be taken from status, in a stable order.
func Allowed(status models.ApplicationStatus) []Action {
	ordered := []Action{ActionReview, ActionApprove, ActionReject, ActionResubmit, ActionPrint, ActionIssue}
	allowed := make([]Action, 0, 2)
	for _, action := range ordered {
		if containsStatus(rules[action].from, status) {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

// Transition validates action against the current status and the actor.
// Permission is checked first, then the payload, then the source status.
func Transition(current models.ApplicationStatus, action Action, actor Actor, input Input) (Result, error) {
	r, ok := rules[action]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	if r.ownerOnly {
		if actor.Role != models.RoleStudent || actor.ID == 0 || actor.ID != input.OwnerID {
			return Result{}, ErrForbidden
		}
	} else if !actor.Role.Allows(r.roles...) {
		return Result{}, ErrForbidden
	}

	if action == ActionReject && strings.TrimSpace(input.Reason) == "" {
		return Result{}, ErrReasonRequired
	}

	if !current.Valid() || !containsStatus(r.from, current) {
		return Result{}, &TransitionError{Action: action, From: current}
	}

	return Result{Action: action, From: current, To: r.to, Effects: r.effects}, nil
}

// Apply writes an accepted transition onto app. It does not persist anything.
func Apply(app *models.Application, result Result, input Input, now time.Time) {
	app.Status = result.To
	app.UpdatedAt = now
	effects := result.Effects

	if effects.Has(EffectClearApproval) {
		app.ApprovedAt = nil
		app.ExpiryDate = nil
	}
	if effects.Has(EffectResetSubmission) {
		app.SubmittedAt = now
	}
	if effects.Has(EffectStampApproval) {
		approvedAt := now
		app.ApprovedAt = &approvedAt
	}
	if effects.Has(EffectSetExpiry) {
		expiry := ExpiryFor(app.SubmittedAt)
		app.ExpiryDate = &expiry
	}
	if effects.Has(EffectSetNotes) {
		app.AdminNotes = optionalText(input.Notes)
	}
	if effects.Has(EffectClearNotes) {
		app.AdminNotes = nil
	}
	if effects.Has(EffectSetRejection) {
		app.RejectionReason = optionalText(input.Reason)
	}
	if effects.Has(EffectClearRejection) {
		app.RejectionReason = nil
	}
	if effects.Has(EffectStampPrinted) {
		printedAt := now
		app.PrintedAt = &printedAt
		app.CardPrinted = true
	}
	if effects.Has(EffectStampIssued) {
		issuedAt := now
		app.IssuedAt = &issuedAt
		app.CardIssued = true
	}
}

// ExpiryFor returns the card expiry for an application submitted at submittedAt.
func ExpiryFor(submittedAt time.Time) time.Time {
	utc := submittedAt.UTC()
	day := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, ValidityDays)
}

func containsStatus(list []models.ApplicationStatus, status models.ApplicationStatus) bool {
	for _, candidate := range list {
		if candidate == status {
			return true
		}
	}
	return false
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
