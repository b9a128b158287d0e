package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/testutil"
	"github.com/noah-isme/gau-id-api/internal/validation"
)

func testLogger() zerolog.Logger {
	return testutil.Logger()
}

type notified struct {
	account models.Account
	event   NotificationEvent
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

func (n *recordingNotifier) Notify(_ context.Context, account models.Account, event NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{account: account, event: event})
}

func (n *recordingNotifier) all() []notified {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notified(nil), n.events...)
}

type fixture struct {
	db           *gorm.DB
	accounts     repository.AccountRepository
	applications repository.ApplicationRepository
	activityLogs repository.ActivityLogRepository
	activity     ActivityService
	notifier     *recordingNotifier
	validate     *validator.Validate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	logs := repository.NewActivityLogRepository(db)
	return &fixture{
		db:           db,
		accounts:     repository.NewAccountRepository(db),
		applications: repository.NewApplicationRepository(db),
		activityLogs: logs,
		activity:     NewActivityService(logs, testLogger()),
		notifier:     &recordingNotifier{},
		validate:     validation.New(),
	}
}

func (f *fixture) actions(t *testing.T) []string {
	t.Helper()

	var rows []models.AdminActivity
	if err := f.db.Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("list activities: %v", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Action)
	}
	return out
}

func actorFor(account models.Account) ActivityActor {
	return ActivityActor{ID: account.ID, Role: string(account.Role), IP: "10.1.1.1"}
}

func strPtr(v string) *string {
	return &v
}
