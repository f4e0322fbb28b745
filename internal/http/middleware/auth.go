package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
)

// RequireUser guards the JSON API. Unauthenticated requests get a 401 with
// the standard error shape instead of the session manager's login redirect.
// The resolved user ID is stored in Locals for downstream handlers.
func RequireUser(session *cartridge.SessionManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := session.GetUserID(c)
		if !ok || userID == 0 {
			logger.Debug("Rejected unauthenticated API request",
				slog.String("path", c.Path()),
				slog.String("method", c.Method()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
