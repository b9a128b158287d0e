package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/service"
)

type fakeStudentService struct {
	updated   []string
	photo     []byte
	photoErr  error
	statusErr error
	accountID uint
}

func (f *fakeStudentService) Profile(_ context.Context, accountID uint) (dto.AccountResponse, error) {
	f.accountID = accountID
	return dto.AccountResponse{ID: accountID, Role: models.RoleStudent}, nil
}

func (f *fakeStudentService) UpdateProfile(_ context.Context, accountID uint, _ dto.ProfileUpdateRequest) (dto.ProfileUpdateResponse, error) {
	f.accountID = accountID
	return dto.ProfileUpdateResponse{UpdatedFields: f.updated}, nil
}

func (f *fakeStudentService) UploadPhoto(_ context.Context, _ uint, reader io.Reader) (dto.PhotoResponse, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return dto.PhotoResponse{}, err
	}
	f.photo = data
	if f.photoErr != nil {
		return dto.PhotoResponse{}, f.photoErr
	}
	return dto.PhotoResponse{PhotoURL: "https://res.cloudinary.com/demo/student_1.jpg"}, nil
}

func (f *fakeStudentService) Status(_ context.Context, _ uint) (dto.StatusResponse, error) {
	if f.statusErr != nil {
		return dto.StatusResponse{}, f.statusErr
	}
	return dto.StatusResponse{CurrentStatus: models.StatusReviewing, ProgressPercentage: 40}, nil
}

func (f *fakeStudentService) Resubmit(_ context.Context, _ uint) (dto.ResubmitResponse, error) {
	return dto.ResubmitResponse{Status: models.StatusPending}, nil
}

func (f *fakeStudentService) DashboardStats(_ context.Context, _ uint) (dto.DashboardStatsResponse, error) {
	return dto.DashboardStatsResponse{ApplicationStatus: models.StatusPending, ProfileCompletion: 58}, nil
}

func newStudentApp(svc service.StudentService) *fiber.App {
	app := fiber.New()
	handler.NewStudentHandler(svc, discardLogger()).Register(app.Group("/student", withIdentity(11, models.RoleStudent)))
	return app
}

func multipartPhoto(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, "portrait.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/student/upload-photo", &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestStudentHandlerUpdateMessages(t *testing.T) {
	svc := &fakeStudentService{}
	app := newStudentApp(svc)

	resp := doJSON(t, app, http.MethodPut, "/student/update", map[string]string{"phone": "+254712345678"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "No changes detected", decodeEnvelope(t, resp).Message)
	require.Equal(t, uint(11), svc.accountID)

	svc.updated = []string{"phone"}
	resp = doJSON(t, app, http.MethodPut, "/student/update", map[string]string{"phone": "+254700000000"})
	require.Equal(t, "Profile updated successfully", decodeEnvelope(t, resp).Message)
}

func TestStudentHandlerUploadPhoto(t *testing.T) {
	svc := &fakeStudentService{}
	app := newStudentApp(svc)

	content := []byte("\x89PNG\r\n\x1a\nrest")
	resp, err := app.Test(multipartPhoto(t, "photo", content), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data dto.PhotoResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &data))
	require.Contains(t, data.PhotoURL, "student_1")
	require.Equal(t, content, svc.photo)
}

func TestStudentHandlerUploadPhotoErrors(t *testing.T) {
	app := newStudentApp(&fakeStudentService{})
	resp, err := app.Test(multipartPhoto(t, "file", []byte("data")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No photo file provided", decodeEnvelope(t, resp).Message)

	app = newStudentApp(&fakeStudentService{photoErr: service.ErrPhotoTypeNotAllowed})
	resp, err = app.Test(multipartPhoto(t, "photo", []byte("plain text")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	app = newStudentApp(&fakeStudentService{photoErr: service.ErrPhotoStorageUnavailable})
	resp, err = app.Test(multipartPhoto(t, "photo", []byte("\x89PNG\r\n\x1a\n")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestStudentHandlerStatusNotFound(t *testing.T) {
	app := newStudentApp(&fakeStudentService{statusErr: service.ErrProfileNotFound})

	resp := doJSON(t, app, http.MethodGet, "/student/status", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Student profile not found", decodeEnvelope(t, resp).Message)
}
