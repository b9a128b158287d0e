package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// AdminStudentHandler exposes the student registry to staff.
type AdminStudentHandler struct {
	service service.AdminStudentService
	logger  zerolog.Logger
}

// NewAdminStudentHandler constructs the handler.
func NewAdminStudentHandler(service service.AdminStudentService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register attaches the registry routes. adminOnly guards removal.
func (h *AdminStudentHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/students", h.list)
	router.Get("/students/:id", h.detail)
	router.Get("/dashboard", h.dashboard)
	router.Delete("/remove/:id", adminOnly, h.remove)
}

func (h *AdminStudentHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid page")
	}
	perPage, err := parseQueryInt(c, "per_page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid per_page")
	}

	req := dto.AdminStudentListRequest{
		Page:        page,
		PerPage:     perPage,
		Search:      c.Query("search"),
		Department:  c.Query("department"),
		Status:      c.Query("status"),
		YearOfStudy: c.Query("year_of_study"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}

	resp, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list students")
	}
	return utils.SendPage(c, "Students retrieved successfully", resp.Items, resp.Pagination)
}

func (h *AdminStudentHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	resp, err := h.service.Detail(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load student")
	}
	return utils.SendSuccess(c, "Student retrieved successfully", resp)
}

func (h *AdminStudentHandler) remove(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	var req dto.RemoveStudentRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	if raw := strings.TrimSpace(c.Query("permanent")); raw != "" {
		permanent, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "Invalid permanent flag")
		}
		req.Permanent = permanent
	}

	message, err := h.service.Remove(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to remove student")
	}
	return utils.SendSuccess(c, message, nil)
}

func (h *AdminStudentHandler) dashboard(c *fiber.Ctx) error {
	resp, err := h.service.Dashboard(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load dashboard")
	}
	return utils.SendSuccess(c, "Dashboard retrieved successfully", resp)
}
