package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/denizaksu/calcgate/internal/calc"
	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/rbac"
)

type AdminRolesHandler struct {
	roles *rbac.Store
}

func NewAdminRolesHandler(roles *rbac.Store) *AdminRolesHandler {
	return &AdminRolesHandler{roles: roles}
}

func (h *AdminRolesHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"roles": h.roles.List(c.Context())})
}

func (h *AdminRolesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.RoleName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: roleName"})
	}
	for _, op := range req.Permissions {
		if !calc.IsKnownOperation(op) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: fmt.Sprintf("unknown operation: %s", op),
			})
		}
	}

	if err := h.roles.CreateRole(c.Context(), req.RoleName, req.Permissions); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("Role %s created", req.RoleName)})
}

func (h *AdminRolesHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.RoleName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: roleName"})
	}

	if err := h.roles.DeleteRole(c.Context(), req.RoleName); err != nil {
		if errors.Is(err, rbac.ErrProtectedRole) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Cannot delete built-in roles"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("Role %s deleted", req.RoleName)})
}
