package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/handler"
	"github.com/noah-isme/gau-id-api/internal/models"
)

type contractStudentService struct {
	fakeStudentService
}

func (contractStudentService) Status(context.Context, uint) (dto.StatusResponse, error) {
	submitted := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	expiry := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return dto.StatusResponse{
		CurrentStatus:      models.StatusApproved,
		ProgressPercentage: 60,
		IDNumber:           "GAU-000004",
		SubmittedDate:      submitted,
		ExpiryDate:         &expiry,
		NextSteps:          "Your ID card will be printed shortly.",
		StatusHistory: []dto.MilestoneResponse{
			{Status: models.StatusPending, Date: submitted, Message: "Application submitted"},
			{Status: models.StatusApproved, Date: submitted.Add(48 * time.Hour), Message: "Application approved"},
		},
	}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestStudentStatusContract(t *testing.T) {
	schema := compileSchema(t, "status_response.schema.json")
	app := newStudentApp(&contractStudentService{})

	resp := doJSON(t, app, http.MethodGet, "/student/status", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestAdminStudentListContract(t *testing.T) {
	schema := compileSchema(t, "student_list.schema.json")
	app := fiber.New()
	handler.NewAdminStudentHandler(&fakeAdminStudentService{}, discardLogger()).Register(app.Group("/admin"), passThrough)

	resp := doJSON(t, app, http.MethodGet, "/admin/students?page=2&per_page=1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestErrorEnvelopeContract(t *testing.T) {
	schema := compileSchema(t, "error_response.schema.json")

	app := newAuthApp(&fakeAuthService{})
	resp := doJSON(t, app, http.MethodPost, "/auth/register", map[string]string{"name": "A"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	validateBody(t, schema, resp)

	reviews := newReviewApp(&fakeReviewService{}, models.RoleStaff)
	resp = doJSON(t, reviews, http.MethodPut, "/admin/reject/3", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	validateBody(t, schema, resp)
}
