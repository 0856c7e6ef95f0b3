// Package rbac decides whether a caller's role claims permit a calculator
// operation, over an effective role table merged from built-in and custom
// roles.
package rbac

import (
	"fmt"

	"github.com/denizaksu/calcgate/internal/calc"
)

// Built-in role names. These are immutable and protected from deletion.
const (
	RoleAS    = "ASrole"
	RoleDM    = "DMrole"
	RoleAdmin = "AdminRole"
)

// SuggestedUnknown is returned on deny when no role in the system grants the
// operation. That is a data-integrity anomaly worth surfacing to the caller.
const SuggestedUnknown = "Unknown"

// BuiltinOrder is the scan order of the built-in roles when looking for a
// role to suggest on deny.
var BuiltinOrder = []string{RoleAS, RoleDM, RoleAdmin}

// BuiltinPermissions maps each built-in role to its operation set.
var BuiltinPermissions = map[string][]string{
	RoleAS:    {calc.OpAdd, calc.OpSubtract},
	RoleDM:    {calc.OpDivide, calc.OpMultiply},
	RoleAdmin: {calc.OpAdd, calc.OpSubtract, calc.OpDivide, calc.OpMultiply},
}

// Table is an effective role table: built-ins first, then custom roles, in
// storage order. It is rebuilt per request from the role store; nothing
// caches it process-wide.
type Table struct {
	order []string
	perms map[string][]string
}

// NewTable returns a table seeded with the built-in roles.
func NewTable() *Table {
	t := &Table{perms: make(map[string][]string)}
	for _, name := range BuiltinOrder {
		t.Set(name, BuiltinPermissions[name])
	}
	return t
}

// Set adds or overwrites a role. A role set twice keeps its original position
// in the scan order.
func (t *Table) Set(name string, permissions []string) {
	if _, ok := t.perms[name]; !ok {
		t.order = append(t.order, name)
	}
	t.perms[name] = append([]string(nil), permissions...)
}

// Permissions returns the operation set of a role and whether it exists.
func (t *Table) Permissions(name string) ([]string, bool) {
	p, ok := t.perms[name]
	return p, ok
}

// Roles returns the role names in scan order.
func (t *Table) Roles() []string {
	return append([]string(nil), t.order...)
}

func (t *Table) grants(role, operation string) bool {
	for _, op := range t.perms[role] {
		if op == operation {
			return true
		}
	}
	return false
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	// RoleUsed is the first caller role that granted the operation.
	RoleUsed string
	// CallerRoles echoes the claim the decision was made against.
	CallerRoles []string
	// SuggestedRole is the first role in table order that would have granted
	// the operation, or SuggestedUnknown if none does.
	SuggestedRole string
}

// Authorize checks whether any of the caller's roles, scanned in claim order,
// grants the operation. An unknown operation is an error, not a deny. A
// caller with no roles is always denied.
func Authorize(callerRoles []string, operation string, table *Table) (Decision, error) {
	if !calc.IsKnownOperation(operation) {
		return Decision{}, fmt.Errorf("%w: %s", calc.ErrUnknownOperation, operation)
	}

	for _, role := range callerRoles {
		if _, ok := table.Permissions(role); !ok {
			continue
		}
		if table.grants(role, operation) {
			return Decision{Allowed: true, RoleUsed: role, CallerRoles: callerRoles}, nil
		}
	}

	suggested := SuggestedUnknown
	for _, role := range table.Roles() {
		if table.grants(role, operation) {
			suggested = role
			break
		}
	}
	return Decision{Allowed: false, CallerRoles: callerRoles, SuggestedRole: suggested}, nil
}
