package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

const photoFormField = "photo"

// StudentHandler serves the authenticated student's own records.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register binds the student routes. The group must already enforce the
// student role.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/profile", h.profile)
	router.Put("/update", h.update)
	router.Post("/upload-photo", h.uploadPhoto)
	router.Get("/status", h.status)
	router.Post("/resubmit", h.resubmit)
	router.Get("/dashboard-stats", h.dashboardStats)
}

func (h *StudentHandler) profile(c *fiber.Ctx) error {
	resp, err := h.service.Profile(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load profile")
	}
	return utils.SendSuccess(c, "Profile retrieved successfully", resp)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.UpdateProfile(requestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update profile")
	}

	message := "Profile updated successfully"
	if len(resp.UpdatedFields) == 0 {
		message = "No changes detected"
	}
	return utils.SendSuccess(c, message, resp)
}

func (h *StudentHandler) uploadPhoto(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile(photoFormField)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "No photo file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Unable to read uploaded photo")
	}
	defer file.Close()

	resp, err := h.service.UploadPhoto(requestContext(c), userIDFromContext(c), file)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to upload photo")
	}
	return utils.SendSuccess(c, "Photo uploaded successfully", resp)
}

func (h *StudentHandler) status(c *fiber.Ctx) error {
	resp, err := h.service.Status(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load application status")
	}
	return utils.SendSuccess(c, "Application status retrieved successfully", resp)
}

func (h *StudentHandler) resubmit(c *fiber.Ctx) error {
	resp, err := h.service.Resubmit(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to resubmit application")
	}
	return utils.SendSuccess(c, "Application resubmitted successfully", resp)
}

func (h *StudentHandler) dashboardStats(c *fiber.Ctx) error {
	resp, err := h.service.DashboardStats(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load dashboard statistics")
	}
	return utils.SendSuccess(c, "Dashboard statistics retrieved successfully", resp)
}
