package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireRole rejects requests whose authenticated role does not match.
// Depositing and buying are buyer-only; the engine re-checks, this just
// rejects earlier with the same status the engine would produce.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, _ := c.Locals("role").(string)
		if current != role {
			return fiber.NewError(http.StatusForbidden, "Permission denied")
		}
		return c.Next()
	}
}
