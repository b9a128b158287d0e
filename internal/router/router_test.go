package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/config"
	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/middleware"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/router"
	"github.com/noah-isme/gau-id-api/internal/security"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/testutil"
	"github.com/noah-isme/gau-id-api/internal/validation"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := testutil.OpenDB(t)
	logger := testutil.Logger()
	validate := validation.New()

	cfg := config.Config{AppName: "GAU ID View API", AppEnv: "test", RateLimitMax: 1000, RateLimitWindow: time.Minute}
	tokens := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "gau-idview-test",
	})
	counters := security.NewMemoryStore()
	lockout := security.NewLockout(counters, security.DefaultLockoutPolicy())
	denylist := security.NewDenylist(counters)

	accounts := repository.NewAccountRepository(db)
	applications := repository.NewApplicationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	announcements := repository.NewAnnouncementRepository(db)

	activity := service.NewActivityService(activityRepo, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), announcements, service.NotificationDeps{}, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(service.NewAuthService(accounts, tokens, lockout, denylist, validate, activity, notifications, logger), logger),
		StudentHandler:       handler.NewStudentHandler(service.NewStudentService(accounts, applications, nil, validate, 5*1024*1024, logger), logger),
		NotificationHandler:  handler.NewNotificationHandler(notifications, logger, time.Minute),
		AdminReviewHandler:   handler.NewAdminReviewHandler(service.NewReviewService(accounts, applications, validate, activity, notifications, logger), logger),
		AdminStudentHandler:  handler.NewAdminStudentHandler(service.NewAdminStudentService(accounts, applications, activityRepo, activity, logger), logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activity, logger),
		AnnouncementHandler:  handler.NewAnnouncementHandler(service.NewAnnouncementService(announcements, nil, time.Minute, validate, activity, logger), logger),
		SettingsHandler:      handler.NewSettingsHandler(service.NewSettingsService(repository.NewSettingRepository(db), validate, activity, logger), logger),
		JWTMiddleware:        middleware.JWTProtected(tokens, denylist),
	})
	return app, db
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out envelope
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, regNumber string) string {
	t.Helper()

	status, body := call(t, app, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{RegNumber: regNumber, Password: testutil.TestPassword})
	require.Equal(t, fiber.StatusOK, status, body.Message)

	var resp dto.LoginResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func studentStatus(t *testing.T, app *fiber.App, token string) dto.StatusResponse {
	t.Helper()

	status, body := call(t, app, http.MethodGet, "/api/v1/student/status", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var resp dto.StatusResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	return resp
}

func TestApplicationLifecycleEndToEnd(t *testing.T) {
	app, db := setupApp(t)
	testutil.SeedStaff(t, db, "STF001", models.RoleStaff)

	status, body := call(t, app, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{
		Name:        "Amina Hassan",
		RegNumber:   "s123/2045/23",
		Email:       "amina.hassan@student.gau.ac.ke",
		Department:  "Computer Science",
		Password:    testutil.TestPassword,
		YearOfStudy: "Year 2",
	})
	require.Equal(t, fiber.StatusCreated, status, body.Errors)

	var registered dto.RegisterResponse
	require.NoError(t, json.Unmarshal(body.Data, &registered))
	studentID := registered.User.ID

	studentToken := login(t, app, "S123/2045/23")
	staffToken := login(t, app, "STF001")

	current := studentStatus(t, app, studentToken)
	require.Equal(t, models.StatusPending, current.CurrentStatus)
	require.Equal(t, 10, current.ProgressPercentage)

	steps := []struct {
		path string
		body interface{}
		want models.ApplicationStatus
	}{
		{fmt.Sprintf("/api/v1/admin/review/%d", studentID), nil, models.StatusReviewing},
		{fmt.Sprintf("/api/v1/admin/approve/%d", studentID), dto.ApproveRequest{Notes: "Documents verified"}, models.StatusApproved},
		{fmt.Sprintf("/api/v1/admin/print/%d", studentID), nil, models.StatusPrinted},
		{fmt.Sprintf("/api/v1/admin/issue/%d", studentID), nil, models.StatusIssued},
	}
	for _, step := range steps {
		status, body := call(t, app, http.MethodPut, step.path, staffToken, step.body)
		require.Equal(t, fiber.StatusOK, status, body.Message)
		require.Equal(t, step.want, studentStatus(t, app, studentToken).CurrentStatus)
	}

	final := studentStatus(t, app, studentToken)
	require.Equal(t, 100, final.ProgressPercentage)
	require.NotNil(t, final.ExpiryDate)
	require.NotNil(t, final.AdminNotes)
	require.Equal(t, "Documents verified", *final.AdminNotes)

	status, body = call(t, app, http.MethodPut, fmt.Sprintf("/api/v1/admin/approve/%d", studentID), staffToken, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "Cannot approve an application that is issued", body.Message)

	status, body = call(t, app, http.MethodGet, "/api/v1/student/notifications", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	var feed dto.NotificationFeedResponse
	require.NoError(t, json.Unmarshal(body.Data, &feed))
	require.GreaterOrEqual(t, feed.UnreadCount, int64(4))
}

func TestRejectAndResubmitEndToEnd(t *testing.T) {
	app, db := setupApp(t)
	testutil.SeedStaff(t, db, "STF001", models.RoleStaff)
	student, _ := testutil.SeedStudent(t, db, "S200/0001/24", testutil.WithStatus(models.StatusReviewing))

	staffToken := login(t, app, "STF001")
	studentToken := login(t, app, "S200/0001/24")

	status, body := call(t, app, http.MethodPut, fmt.Sprintf("/api/v1/admin/reject/%d", student.ID), staffToken, map[string]string{})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "Rejection reason is required", body.Message)

	status, _ = call(t, app, http.MethodPut, fmt.Sprintf("/api/v1/admin/reject/%d", student.ID), staffToken, dto.RejectRequest{Reason: "Photo is blurred"})
	require.Equal(t, fiber.StatusOK, status)

	rejected := studentStatus(t, app, studentToken)
	require.Equal(t, models.StatusRejected, rejected.CurrentStatus)
	require.NotNil(t, rejected.RejectionReason)
	require.Equal(t, "Photo is blurred", *rejected.RejectionReason)

	status, _ = call(t, app, http.MethodPost, "/api/v1/student/resubmit", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	resubmitted := studentStatus(t, app, studentToken)
	require.Equal(t, models.StatusPending, resubmitted.CurrentStatus)
	require.Nil(t, resubmitted.RejectionReason)
}

func TestConcurrentApprovalsCommitOnce(t *testing.T) {
	app, db := setupApp(t)
	testutil.SeedStaff(t, db, "STF001", models.RoleStaff)
	testutil.SeedStaff(t, db, "ADM001", models.RoleAdmin)
	student, _ := testutil.SeedStudent(t, db, "S300/0001/24", testutil.WithStatus(models.StatusReviewing))

	tokens := []string{login(t, app, "STF001"), login(t, app, "ADM001")}
	path := fmt.Sprintf("/api/v1/admin/approve/%d", student.ID)

	codes := make([]int, len(tokens))
	errs := make([]error, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPut, path, nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			resp, err := app.Test(req, -1)
			if err != nil {
				errs[i] = err
				return
			}
			codes[i] = resp.StatusCode
			_ = resp.Body.Close()
		}(i, token)
	}
	wg.Wait()

	successes := 0
	for i, code := range codes {
		require.NoError(t, errs[i])
		switch code {
		case fiber.StatusOK:
			successes++
		case fiber.StatusBadRequest, fiber.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	require.Equal(t, 1, successes)

	var approvals int64
	require.NoError(t, db.Model(&models.AdminActivity{}).Where("action = ?", "approve_application").Count(&approvals).Error)
	require.Equal(t, int64(1), approvals)
}

func TestRoleGates(t *testing.T) {
	app, db := setupApp(t)
	testutil.SeedStaff(t, db, "STF001", models.RoleStaff)
	student, _ := testutil.SeedStudent(t, db, "S400/0001/24")

	studentToken := login(t, app, "S400/0001/24")
	staffToken := login(t, app, "STF001")

	status, _ := call(t, app, http.MethodGet, "/api/v1/admin/students", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/admin/students", studentToken, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/student/profile", staffToken, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/admin/bulk-approve", staffToken, dto.BulkApproveRequest{StudentIDs: []uint{student.ID}})
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/admin/remove/%d", student.ID), staffToken, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/admin/students", staffToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, "/api/v1/auth/logout", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/student/profile", studentToken, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}
