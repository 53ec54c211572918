package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

// RequireAdmin ensures the authenticated member carries the ADMIN role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.IsAdmin() {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
