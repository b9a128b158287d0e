package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// RequireRole lets the request through only when the authenticated role is
// one of roles.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "Authentication required")
		}

		raw, _ := c.Locals("user_role").(string)
		role, ok := models.ParseRole(raw)
		if !ok || !role.Allows(roles...) {
			return utils.SendError(c, fiber.StatusForbidden, "Insufficient permissions")
		}
		return c.Next()
	}
}
