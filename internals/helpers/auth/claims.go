package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
)

// Locals keys hydrated by the JWT middleware.
const (
	LocUserID   = "user_id"
	LocRole     = "role"
	LocSchoolID = "school_id"
	LocRawToken = "raw_token"
)

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	s, _ := c.Locals(LocUserID).(string)
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRole).(string)
	return strings.ToLower(strings.TrimSpace(s))
}

// GetSchoolID returns the token's school scope. Nil UUID for superadmin.
func GetSchoolID(c *fiber.Ctx) uuid.UUID {
	s, _ := c.Locals(LocSchoolID).(string)
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ResolveSchoolID picks the tenant for the request: the :school_id path param,
// validated against the token scope for non-superadmin roles.
func ResolveSchoolID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params("school_id"))
	pathID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid school_id")
	}
	if GetRole(c) == constants.RoleSuperadmin {
		return pathID, nil
	}
	if tokenID := GetSchoolID(c); tokenID != pathID {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Forbidden - school scope mismatch")
	}
	return pathID, nil
}

func GetRawToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRawToken).(string)
	return s
}
