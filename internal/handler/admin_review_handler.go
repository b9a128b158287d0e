package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// AdminReviewHandler drives application status transitions.
type AdminReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewAdminReviewHandler constructs the handler.
func NewAdminReviewHandler(service service.ReviewService, logger zerolog.Logger) *AdminReviewHandler {
	return &AdminReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_review_handler").Logger(),
	}
}

// Register binds the transition routes. adminOnly guards bulk approval.
func (h *AdminReviewHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Put("/review/:id", h.review)
	router.Put("/approve/:id", h.approve)
	router.Put("/reject/:id", h.reject)
	router.Put("/print/:id", h.print)
	router.Put("/issue/:id", h.issue)
	router.Post("/bulk-approve", adminOnly, h.bulkApprove)
}

func (h *AdminReviewHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	resp, err := h.service.Review(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to move application to review")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s's application is now under review", resp.StudentName), resp)
}

func (h *AdminReviewHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	var req dto.ApproveRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Approve(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to approve application")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s's application approved successfully", resp.StudentName), resp)
}

func (h *AdminReviewHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	var req dto.RejectRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Reject(requestContext(c), activityActorFromContext(c), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to reject application")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s's application rejected", resp.StudentName), resp)
}

func (h *AdminReviewHandler) print(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	resp, err := h.service.Print(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to mark ID card as printed")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s's ID card marked as printed", resp.StudentName), resp)
}

func (h *AdminReviewHandler) issue(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student id")
	}

	resp, err := h.service.Issue(requestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to mark ID card as issued")
	}
	return utils.SendSuccess(c, fmt.Sprintf("%s's ID card marked as issued", resp.StudentName), resp)
}

func (h *AdminReviewHandler) bulkApprove(c *fiber.Ctx) error {
	var req dto.BulkApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.BulkApprove(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to approve applications")
	}
	return utils.SendSuccess(c, fmt.Sprintf("Successfully approved %d applications", resp.ApprovedCount), resp)
}
