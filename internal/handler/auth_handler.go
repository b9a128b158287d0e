package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/middleware"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

const (
	registerMessage       = "Registration successful! A welcome email has been sent to your inbox. Your ID application is now pending review."
	forgotPasswordMessage = "If an account with this email exists, you will receive password reset instructions."
)

// AuthHandler exposes registration, login and credential endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the auth routes. protect authenticates the caller and
// adminOnly restricts staff creation to administrators.
func (h *AuthHandler) Register(router fiber.Router, protect, adminOnly fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/login", h.login)
	router.Post("/refresh", h.refresh)
	router.Post("/forgot-password", h.forgotPassword)

	router.Get("/verify", protect, h.verify)
	router.Post("/logout", protect, h.logout)
	router.Put("/change-password", protect, h.changePassword)
	router.Post("/admin/create", protect, adminOnly, h.createStaff)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Register(requestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "Registration failed. Please try again.")
	}

	return utils.SendCreated(c, registerMessage, resp)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Login(requestContext(c), req, dto.ClientMeta{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)})
	if err != nil {
		return respondError(c, h.logger, err, "Login failed. Please try again.")
	}

	return utils.SendSuccess(c, "Login successful", resp)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	resp, err := h.service.Refresh(requestContext(c), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid refresh token")
		case errors.Is(err, service.ErrAccountInactive):
			return utils.SendError(c, fiber.StatusUnauthorized, "User not found or inactive")
		}
		return respondError(c, h.logger, err, "Token refresh failed")
	}

	return utils.SendSuccess(c, "Token refreshed successfully", resp)
}

func (h *AuthHandler) forgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := h.service.ForgotPassword(requestContext(c), req); err != nil {
		return respondError(c, h.logger, err, "Password reset request failed")
	}

	return utils.SendSuccess(c, forgotPasswordMessage, nil)
}

func (h *AuthHandler) verify(c *fiber.Ctx) error {
	resp, err := h.service.Verify(requestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "Token verification failed")
	}

	return utils.SendSuccess(c, "Token is valid", resp)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := parseOptionalBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := h.service.Logout(requestContext(c), claims, req.RefreshToken); err != nil {
		return respondError(c, h.logger, err, "Logout failed")
	}

	return utils.SendSuccess(c, "Logged out successfully", nil)
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if err := h.service.ChangePassword(requestContext(c), userIDFromContext(c), req); err != nil {
		return respondError(c, h.logger, err, "Password change failed")
	}

	return utils.SendSuccess(c, "Password changed successfully", nil)
}

func (h *AuthHandler) createStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	account, err := h.service.CreateStaff(requestContext(c), activityActorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "User creation failed")
	}

	return utils.SendCreated(c, fmt.Sprintf("%s user created successfully", upperFirst(string(account.Role))), account)
}
