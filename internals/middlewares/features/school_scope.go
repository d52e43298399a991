package features

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

// RequireSchoolScope enforces that school-scoped roles only touch their own
// school: the :school_id path param must match the token claim. Superadmin
// bypasses the check.
func RequireSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params("school_id"))
		pathID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid school_id")
		}
		if helperAuth.GetRole(c) == constants.RoleSuperadmin {
			return c.Next()
		}
		if helperAuth.GetSchoolID(c) != pathID {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden - school scope mismatch")
		}
		return c.Next()
	}
}
