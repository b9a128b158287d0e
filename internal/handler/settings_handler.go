package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// SettingsHandler exposes the system settings document.
type SettingsHandler struct {
	service service.SettingsService
	logger  zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service service.SettingsService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "settings_handler").Logger(),
	}
}

// Register binds the settings routes. Writes are restricted by adminOnly.
func (h *SettingsHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("/settings", h.list)
	router.Put("/settings", adminOnly, h.update)
}

func (h *SettingsHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load settings")
	}
	return utils.SendSuccess(c, "Settings retrieved successfully", items)
}

func (h *SettingsHandler) update(c *fiber.Ctx) error {
	var req dto.SettingsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	items, err := h.service.Update(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update settings")
	}
	return utils.SendSuccess(c, "Settings updated successfully", items)
}
