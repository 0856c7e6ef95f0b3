package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/rbac"
)

// AdminRequired denies any caller whose token lacks the AdminRole group
// claim. The deny happens before any handler logic runs.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, group := range GroupsFromClaims(c) {
			if group == rbac.RoleAdmin {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: "Admin access required",
		})
	}
}
