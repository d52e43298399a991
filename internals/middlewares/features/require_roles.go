package features

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "schoolku_backend/internals/helpers/auth"
)

// RequireRoles rejects with 403 unless the token role is one of the given
// roles.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if _, ok := allowed[helperAuth.GetRole(c)]; !ok {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden - insufficient role")
		}
		return c.Next()
	}
}
