package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/service"
)

type fakeNotificationService struct {
	role      models.Role
	pending   []dto.NotificationResponse
	cleanedUp bool
}

func (f *fakeNotificationService) Notify(_ context.Context, _ models.Account, _ service.NotificationEvent) {}

func (f *fakeNotificationService) Feed(_ context.Context, _ uint, role models.Role) (dto.NotificationFeedResponse, error) {
	f.role = role
	return dto.NotificationFeedResponse{
		Notifications: []dto.FeedItem{{ID: "notification_1", Type: "approval", Priority: "high"}},
		UnreadCount:   1,
		TotalCount:    1,
	}, nil
}

func (f *fakeNotificationService) List(_ context.Context, _ uint, _, _ int) ([]dto.NotificationResponse, error) {
	return nil, nil
}

func (f *fakeNotificationService) MarkRead(_ context.Context, id, accountID uint) (dto.NotificationResponse, error) {
	if id != 5 {
		return dto.NotificationResponse{}, service.ErrNotificationNotFound
	}
	return dto.NotificationResponse{ID: id, AccountID: accountID, Read: true}, nil
}

func (f *fakeNotificationService) Subscribe(_ uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse, len(f.pending))
	for _, item := range f.pending {
		ch <- item
	}
	close(ch)
	return ch, func() { f.cleanedUp = true }
}

func (f *fakeNotificationService) Start(_ context.Context) {}

func newNotificationApp(svc service.NotificationService) *fiber.App {
	app := fiber.New()
	group := app.Group("/student/notifications", withIdentity(11, models.RoleStudent))
	handler.NewNotificationHandler(svc, discardLogger(), time.Minute).Register(group)
	return app
}

func TestNotificationHandlerFeedUsesRole(t *testing.T) {
	svc := &fakeNotificationService{}
	app := newNotificationApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/student/notifications", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var feed dto.NotificationFeedResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &feed))
	require.Equal(t, int64(1), feed.UnreadCount)
	require.Equal(t, models.RoleStudent, svc.role)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	app := newNotificationApp(&fakeNotificationService{})

	resp := doJSON(t, app, http.MethodPatch, "/student/notifications/5/read", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/student/notifications/6/read", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/student/notifications/x/read", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestNotificationHandlerStreamWritesEvents(t *testing.T) {
	svc := &fakeNotificationService{pending: []dto.NotificationResponse{{ID: 3, Type: "approval", Title: "ID Application Approved"}}}
	app := newNotificationApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/student/notifications/stream", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	require.True(t, strings.HasPrefix(body, ": keep-alive"))
	require.Contains(t, body, "event: notification\n")
	require.Contains(t, body, `"title":"ID Application Approved"`)
	require.True(t, svc.cleanedUp)
}
