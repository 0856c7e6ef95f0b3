package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/denizaksu/calcgate/internal/calc"
	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/middleware"
	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/rbac"
	"github.com/denizaksu/calcgate/internal/services"
)

const historyPageSize = 10

type CalculateHandler struct {
	roles   *rbac.Store
	history *services.HistoryService
}

func NewCalculateHandler(roles *rbac.Store, history *services.HistoryService) *CalculateHandler {
	return &CalculateHandler{roles: roles, history: history}
}

// Calculate handles POST /calculate: authorize the caller's roles against
// the requested operation, run it over exact decimals, append the result to
// the ledger and return it with the caller's recent history.
func (h *CalculateHandler) Calculate(c *fiber.Ctx) error {
	userID, err := middleware.UserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	var req dto.CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid JSON body"})
	}
	if req.Operation == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Missing field: operation"})
	}

	op1, err := calc.ParseOperand("operand1", string(req.Operand1))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	op2, err := calc.ParseOperand("operand2", string(req.Operand2))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	// Role table is rebuilt per request from the role store; a stale custom
	// role never outlives one request.
	table := h.roles.LoadEffective(c.Context())
	callerRoles := middleware.GroupsFromClaims(c)

	decision, err := rbac.Authorize(callerRoles, req.Operation, table)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	if !decision.Allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          fmt.Sprintf("Your roles do not permit %q", req.Operation),
			"your_roles":     decision.CallerRoles,
			"suggested_role": decision.SuggestedRole,
		})
	}

	result, err := calc.Calculate(op1, op2, req.Operation)
	if err != nil {
		if errors.Is(err, calc.ErrDivisionByZero) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Division by zero"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	if _, err := h.history.Append(c.Context(), userID.String(), op1, op2, result, req.Operation, decision.RoleUsed); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	entries, err := h.history.Recent(c.Context(), userID.String(), historyPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.CalculateResponse{
		Result:    result.String(),
		History:   historyItems(entries, false),
		UserRoles: callerRoles,
	})
}

func historyItems(entries []models.HistoryEntry, withUser bool) []dto.HistoryItem {
	items := make([]dto.HistoryItem, 0, len(entries))
	for _, e := range entries {
		item := dto.HistoryItem{
			Operand1:  e.Operand1.String(),
			Operand2:  e.Operand2.String(),
			Operation: e.Operation,
			Result:    e.Result.String(),
			RoleUsed:  e.RoleUsed,
			Timestamp: e.Timestamp,
		}
		if withUser {
			item.UserID = e.UserID
		}
		items = append(items, item)
	}
	return items
}
