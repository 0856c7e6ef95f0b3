package rbac

import (
	"errors"
	"testing"

	"github.com/denizaksu/calcgate/internal/calc"
)

func TestAuthorize_EmptyRolesAlwaysDenied(t *testing.T) {
	t.Parallel()

	table := NewTable()
	for _, op := range calc.Operations {
		decision, err := Authorize(nil, op, table)
		if err != nil {
			t.Fatalf("Authorize(nil, %s): %v", op, err)
		}
		if decision.Allowed {
			t.Fatalf("caller with no roles was allowed %s", op)
		}
	}
}

func TestAuthorize_BuiltinGrants(t *testing.T) {
	t.Parallel()

	table := NewTable()
	cases := []struct {
		role string
		op   string
	}{
		{RoleAS, calc.OpAdd},
		{RoleAS, calc.OpSubtract},
		{RoleDM, calc.OpDivide},
		{RoleDM, calc.OpMultiply},
		{RoleAdmin, calc.OpDivide},
	}
	for _, tc := range cases {
		decision, err := Authorize([]string{tc.role}, tc.op, table)
		if err != nil {
			t.Fatalf("Authorize(%s, %s): %v", tc.role, tc.op, err)
		}
		if !decision.Allowed || decision.RoleUsed != tc.role {
			t.Fatalf("Authorize(%s, %s) = %+v, want allow via %s", tc.role, tc.op, decision, tc.role)
		}
	}
}

func TestAuthorize_FirstClaimMatchWins(t *testing.T) {
	t.Parallel()

	table := NewTable()
	decision, err := Authorize([]string{RoleDM, RoleAS}, calc.OpAdd, table)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !decision.Allowed || decision.RoleUsed != RoleAS {
		t.Fatalf("expected allow via %s, got %+v", RoleAS, decision)
	}

	// AdminRole first in the claim wins even when a later role also grants.
	decision, err = Authorize([]string{RoleAdmin, RoleAS}, calc.OpAdd, table)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if decision.RoleUsed != RoleAdmin {
		t.Fatalf("expected roleUsed %s, got %q", RoleAdmin, decision.RoleUsed)
	}
}

func TestAuthorize_DenySuggestsFirstGrantingRole(t *testing.T) {
	t.Parallel()

	table := NewTable()
	decision, err := Authorize([]string{RoleAS}, calc.OpDivide, table)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("ASrole must not divide")
	}
	if decision.SuggestedRole != RoleDM {
		t.Fatalf("suggested role = %q, want %q", decision.SuggestedRole, RoleDM)
	}
}

func TestAuthorize_UnknownRoleInClaimIsSkipped(t *testing.T) {
	t.Parallel()

	table := NewTable()
	decision, err := Authorize([]string{"ghost", RoleDM}, calc.OpMultiply, table)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !decision.Allowed || decision.RoleUsed != RoleDM {
		t.Fatalf("expected allow via %s, got %+v", RoleDM, decision)
	}
}

func TestAuthorize_UnknownOperationIsErrorNotDeny(t *testing.T) {
	t.Parallel()

	table := NewTable()
	_, err := Authorize([]string{RoleAdmin}, "modulo", table)
	if !errors.Is(err, calc.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestAuthorize_NoGrantingRoleSuggestsUnknown(t *testing.T) {
	t.Parallel()

	// A table where nothing grants divide.
	table := &Table{perms: make(map[string][]string)}
	table.Set(RoleAS, []string{calc.OpAdd})

	decision, err := Authorize([]string{"ghost"}, calc.OpDivide, table)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if decision.SuggestedRole != SuggestedUnknown {
		t.Fatalf("suggested role = %q, want %q", decision.SuggestedRole, SuggestedUnknown)
	}
}

func TestTable_CustomRoleOverlayKeepsScanOrder(t *testing.T) {
	t.Parallel()

	table := NewTable()
	table.Set("auditor", []string{calc.OpAdd})

	roles := table.Roles()
	want := []string{RoleAS, RoleDM, RoleAdmin, "auditor"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles[%d] = %q, want %q", i, roles[i], want[i])
		}
	}

	// Redefining an existing name keeps its position but swaps permissions.
	table.Set("auditor", []string{calc.OpMultiply})
	perms, ok := table.Permissions("auditor")
	if !ok || len(perms) != 1 || perms[0] != calc.OpMultiply {
		t.Fatalf("redefined auditor perms = %v", perms)
	}
	if got := len(table.Roles()); got != len(want) {
		t.Fatalf("redefinition grew the table to %d roles", got)
	}
}
