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

// AnnouncementHandler serves announcement endpoints for readers and staff.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler builds an announcement handler.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// RegisterPublic binds the reader feed. The route expects an authenticated
// caller so the feed can be scoped to the role.
func (h *AnnouncementHandler) RegisterPublic(router fiber.Router, protect fiber.Handler) {
	router.Get("/announcements", protect, h.visible)
}

// RegisterAdmin binds the management routes under the admin group.
func (h *AnnouncementHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/announcements", h.list)
	router.Post("/announcement", h.create)
}

func (h *AnnouncementHandler) visible(c *fiber.Ctx) error {
	resp, err := h.service.ListVisible(requestContext(c), userRoleFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load announcements")
	}

	c.Set("X-Cache-Hit", strconv.FormatBool(resp.CacheHit))
	return utils.SendSuccess(c, "Announcements retrieved successfully", resp.Items)
}

func (h *AnnouncementHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid page")
	}
	perPage, err := parseQueryInt(c, "per_page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid per_page")
	}

	req := dto.AnnouncementListRequest{Page: page, PerPage: perPage}
	if raw := strings.TrimSpace(c.Query("active_only")); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "Invalid active_only flag")
		}
		req.ActiveOnly = activeOnly
	}

	resp, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list announcements")
	}
	return utils.SendPage(c, "Announcements retrieved successfully", resp.Items, resp.Pagination)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	var req dto.AnnouncementCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Create(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create announcement")
	}
	return utils.SendCreated(c, "Announcement created successfully", resp)
}
