package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/rbac"
	"github.com/denizaksu/calcgate/internal/services"
)

func setupCalcApp(t *testing.T, userID uuid.UUID, groups []string) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:calc_handler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Role{}, &models.Group{}, &models.GroupMembership{}, &models.HistoryEntry{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	handler := NewCalculateHandler(rbac.NewStore(db), services.NewHistoryService(db))

	claimGroups := make([]interface{}, len(groups))
	for i, g := range groups {
		claimGroups[i] = g
	}
	token := &jwt.Token{Claims: jwt.MapClaims{
		"sub":    userID.String(),
		"groups": claimGroups,
	}}

	app := fiber.New()
	app.Post("/api/calculate", func(c *fiber.Ctx) error {
		c.Locals("user", token)
		return c.Next()
	}, handler.Calculate)
	return app, db
}

func postCalculate(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return resp, decoded
}

func TestCalculateEndpoint_AllowedOperation(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"ASrole"})
	resp, body := postCalculate(t, app, `{"operand1":"0.1","operand2":"0.2","operation":"add"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["result"] != "0.3" {
		t.Fatalf("result = %v, want 0.3", body["result"])
	}
	history, ok := body["history"].([]interface{})
	if !ok || len(history) != 1 {
		t.Fatalf("history = %v", body["history"])
	}
	roles, ok := body["user_roles"].([]interface{})
	if !ok || len(roles) != 1 || roles[0] != "ASrole" {
		t.Fatalf("user_roles = %v", body["user_roles"])
	}
}

func TestCalculateEndpoint_NumericOperandsAccepted(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"DMrole"})
	resp, body := postCalculate(t, app, `{"operand1":6,"operand2":1.5,"operation":"divide"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["result"] != "4" {
		t.Fatalf("result = %v, want 4", body["result"])
	}
}

func TestCalculateEndpoint_RoleDeniedSuggestsRole(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"ASrole"})
	resp, body := postCalculate(t, app, `{"operand1":"1","operand2":"2","operation":"divide"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["suggested_role"] != "DMrole" {
		t.Fatalf("suggested_role = %v, want DMrole", body["suggested_role"])
	}
}

func TestCalculateEndpoint_DivisionByZero(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"DMrole"})
	resp, body := postCalculate(t, app, `{"operand1":"5","operand2":"0","operation":"divide"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["error"] != "Division by zero" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestCalculateEndpoint_UnknownOperation(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"AdminRole"})
	resp, _ := postCalculate(t, app, `{"operand1":"5","operand2":"2","operation":"modulo"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCalculateEndpoint_MissingFieldNamesField(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), []string{"ASrole"})
	resp, body := postCalculate(t, app, `{"operand1":"5","operation":"add"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] != "missing field: operand2" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestCalculateEndpoint_NoRolesDenied(t *testing.T) {
	t.Parallel()

	app, _ := setupCalcApp(t, uuid.New(), nil)
	resp, _ := postCalculate(t, app, `{"operand1":"1","operand2":"2","operation":"add"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestCalculateEndpoint_HistoryCapAtTen(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	app, _ := setupCalcApp(t, userID, []string{"AdminRole"})

	var body map[string]interface{}
	for i := 0; i < 11; i++ {
		var resp *http.Response
		resp, body = postCalculate(t, app, fmt.Sprintf(`{"operand1":"%d","operand2":"1","operation":"add"}`, i))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("calc %d: status %d", i, resp.StatusCode)
		}
	}

	history, ok := body["history"].([]interface{})
	if !ok || len(history) != 10 {
		t.Fatalf("history length = %d, want 10", len(history))
	}
	first, ok := history[0].(map[string]interface{})
	if !ok || first["operand1"] != "10" {
		t.Fatalf("newest entry = %v", history[0])
	}
}
