package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/services"
)

// AdminUsersHandler exposes the user-management slice of the admin surface.
// Every route sits behind the AdminRole middleware; the handlers only
// validate input and perform one identity mutation each.
type AdminUsersHandler struct {
	identity *services.IdentityService
}

func NewAdminUsersHandler(identity *services.IdentityService) *AdminUsersHandler {
	return &AdminUsersHandler{identity: identity}
}

func (h *AdminUsersHandler) List(c *fiber.Ctx) error {
	users, err := h.identity.ListUsers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.UsersResponse{Users: users})
}

func (h *AdminUsersHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: username"})
	}
	if req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: role"})
	}

	if err := h.identity.SetUserRole(c.Context(), req.Username, req.Role); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, services.ErrRoleNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
		}
	}
	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("Role updated to %s", req.Role)})
}

func (h *AdminUsersHandler) Block(c *fiber.Ctx) error {
	var req dto.BlockUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: username"})
	}
	if req.Block == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: block"})
	}

	if err := h.identity.SetUserBlocked(c.Context(), req.Username, *req.Block); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	msg := "User unblocked"
	if *req.Block {
		msg = "User blocked"
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

func (h *AdminUsersHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: username"})
	}

	if err := h.identity.DeleteUser(c.Context(), req.Username); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: "User deleted"})
}
