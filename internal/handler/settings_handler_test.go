package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/service"
)

type fakeSettingsService struct {
	updates []dto.SettingsUpdateRequest
}

func (f *fakeSettingsService) List(_ context.Context) ([]dto.SettingResponse, error) {
	return []dto.SettingResponse{{Key: "university_code", Value: "GAU"}}, nil
}

func (f *fakeSettingsService) Update(_ context.Context, _ service.ActivityActor, req dto.SettingsUpdateRequest) ([]dto.SettingResponse, error) {
	if _, ok := req.Settings["max_file_size_mb"]; ok {
		return nil, &service.SettingsValidationError{Problems: []string{"/max_file_size_mb: must be <= 50 but found 80"}}
	}
	f.updates = append(f.updates, req)
	return f.List(context.Background())
}

func TestSettingsHandlerUpdate(t *testing.T) {
	svc := &fakeSettingsService{}
	app := fiber.New()
	handler.NewSettingsHandler(svc, discardLogger()).Register(app.Group("/admin", withIdentity(1, models.RoleAdmin)), passThrough)

	resp := doJSON(t, app, http.MethodPut, "/admin/settings", map[string]interface{}{"settings": map[string]interface{}{"university_code": "GAU"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, svc.updates, 1)

	resp = doJSON(t, app, http.MethodPut, "/admin/settings", map[string]interface{}{"settings": map[string]interface{}{"max_file_size_mb": 80}})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.Equal(t, "Invalid settings", body.Message)
	require.Equal(t, []string{"/max_file_size_mb: must be <= 50 but found 80"}, body.Errors)
}
