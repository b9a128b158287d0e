package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gau-id-api/internal/auth"
	"github.com/noah-isme/gau-id-api/internal/security"
	"github.com/noah-isme/gau-id-api/internal/utils"
)

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (auth.Claims, error)
}

// JWTProtected validates bearer tokens and rejects revoked ones. On success
// it stores user_id (uint), user_role (models.Role as string) and
// token_claims (auth.Claims) in the request locals.
func JWTProtected(tokens AccessTokenParser, denylist security.Denylist) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid token")
		}

		claims, err := tokens.ParseAccess(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		if denylist != nil {
			revoked, err := denylist.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				return utils.SendError(c, fiber.StatusInternalServerError, "Unable to verify token")
			}
			if revoked {
				return utils.SendError(c, fiber.StatusUnauthorized, "Token has been revoked")
			}
		}

		accountID, err := claims.AccountID()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid token claims")
		}

		c.Locals("user_id", accountID)
		c.Locals("user_role", strings.ToLower(claims.Role))
		c.Locals("token_claims", claims)

		return c.Next()
	}
}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(c *fiber.Ctx) (auth.Claims, bool) {
	claims, ok := c.Locals("token_claims").(auth.Claims)
	return claims, ok
}
