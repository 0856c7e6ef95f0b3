package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/services"
)

type AdminHistoryHandler struct {
	history *services.HistoryService
}

func NewAdminHistoryHandler(history *services.HistoryService) *AdminHistoryHandler {
	return &AdminHistoryHandler{history: history}
}

func (h *AdminHistoryHandler) List(c *fiber.Ctx) error {
	entries, err := h.history.All(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.HistoryResponse{History: historyItems(entries, true)})
}

func (h *AdminHistoryHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: userId"})
	}
	if req.Timestamp == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: timestamp"})
	}

	if err := h.history.Delete(c.Context(), req.UserID, req.Timestamp); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: "History entry deleted"})
}
