package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireMultipart rejects requests whose body is not multipart/form-data
// with 415 before any upload handler runs.
func RequireMultipart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct := strings.ToLower(c.Get(fiber.HeaderContentType))
		if !strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "multipart/form-data required")
		}
		return c.Next()
	}
}
