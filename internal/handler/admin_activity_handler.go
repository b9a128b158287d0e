package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// AdminActivityHandler exposes the audit trail.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("/activities", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid page")
	}
	perPage, err := parseQueryInt(c, "per_page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid per_page")
	}
	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid actor_id")
	}
	targetID, err := parseQueryUint(c, "target_user_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid target_user_id")
	}
	since, err := parseQueryTime(c, "since")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid since timestamp")
	}

	req := dto.AdminActivityListRequest{
		Page:            page,
		PerPage:         perPage,
		ActorID:         actorID,
		TargetAccountID: targetID,
		Action:          c.Query("action"),
		Since:           since,
	}

	resp, err := h.service.List(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list activity logs")
	}
	return utils.SendPage(c, "Activity logs retrieved successfully", resp.Items, resp.Pagination)
}
