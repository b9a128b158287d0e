package handler

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/lifecycle"
	"github.com/noah-isme/gau-id-api/internal/service"
	"github.com/noah-isme/gau-id-api/internal/utils"
	"github.com/noah-isme/gau-id-api/internal/validation"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorMappings is checked in order; the first match wins. An empty message
// reuses the error text.
var errorMappings = []errorMapping{
	{service.ErrInvalidInput, fiber.StatusBadRequest, "Invalid input"},
	{lifecycle.ErrReasonRequired, fiber.StatusBadRequest, "Rejection reason is required"},
	{lifecycle.ErrIllegalTransition, fiber.StatusBadRequest, ""},
	{lifecycle.ErrUnknownAction, fiber.StatusBadRequest, ""},
	{service.ErrCurrentPasswordIncorrect, fiber.StatusBadRequest, "Current password is incorrect"},
	{service.ErrPhotoTooLarge, fiber.StatusBadRequest, "Photo exceeds the maximum allowed size"},
	{service.ErrPhotoTypeNotAllowed, fiber.StatusBadRequest, "Only JPEG, PNG and WebP images are allowed"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{service.ErrAccountInactive, fiber.StatusUnauthorized, "Account is deactivated. Please contact admin."},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "Invalid or expired token"},
	{lifecycle.ErrForbidden, fiber.StatusForbidden, "Insufficient permissions"},
	{service.ErrStudentNotFound, fiber.StatusNotFound, "Student not found"},
	{service.ErrProfileNotFound, fiber.StatusNotFound, "Student profile not found"},
	{service.ErrAccountNotFound, fiber.StatusNotFound, "User not found"},
	{service.ErrNotificationNotFound, fiber.StatusNotFound, "Notification not found"},
	{service.ErrNoEligibleStudents, fiber.StatusNotFound, "No eligible students found for approval"},
	{service.ErrDuplicateEmail, fiber.StatusConflict, "User with this email already exists"},
	{service.ErrDuplicateRegNumber, fiber.StatusConflict, "User with this registration number already exists"},
	{service.ErrAccountExists, fiber.StatusConflict, "User already exists"},
	{service.ErrApplicationConflict, fiber.StatusConflict, "Application was modified by another request, please retry"},
	{service.ErrAddressLocked, fiber.StatusTooManyRequests, "Too many failed attempts. Please try again later."},
	{service.ErrAccountLocked, fiber.StatusTooManyRequests, "Account temporarily locked due to too many failed attempts."},
	{service.ErrPhotoStorageUnavailable, fiber.StatusServiceUnavailable, "Photo storage is not configured"},
}

// respondError maps err to the response envelope. Unknown errors are logged
// and reported as 500 with fallback as the message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.Fail(c, fiber.StatusBadRequest, "Validation failed", validation.Messages(err))
	}

	var settingsErr *service.SettingsValidationError
	if errors.As(err, &settingsErr) {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid settings", settingsErr.Problems)
	}

	for _, mapping := range errorMappings {
		if !errors.Is(err, mapping.target) {
			continue
		}
		message := mapping.message
		if message == "" {
			message = upperFirst(err.Error())
		}
		return utils.SendError(c, mapping.status, message)
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

func upperFirst(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
