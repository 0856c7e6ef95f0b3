package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/rbac"
)

func setupIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:identity_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Group{}, &models.GroupMembership{}, &models.RefreshToken{}, &models.AuthSession{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	for _, name := range append([]string{}, rbac.BuiltinOrder...) {
		group := models.Group{Name: name, BuiltIn: true}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
			t.Fatalf("seed group %s: %v", name, err)
		}
	}
	return db
}

func TestIdentity_RegisterDefaultsToASrole(t *testing.T) {
	t.Parallel()

	svc := NewIdentityService(setupIdentityTestDB(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "+15551230001", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.CustomRole != rbac.RoleAS {
		t.Fatalf("default role = %q, want %q", user.CustomRole, rbac.RoleAS)
	}

	groups, err := svc.ClaimGroups(ctx, user.ID)
	if err != nil {
		t.Fatalf("ClaimGroups: %v", err)
	}
	if len(groups) != 1 || groups[0] != rbac.RoleAS {
		t.Fatalf("groups = %v", groups)
	}
}

func TestIdentity_RegisterNeverGrantsAdmin(t *testing.T) {
	t.Parallel()

	svc := NewIdentityService(setupIdentityTestDB(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, "mallory", "m@example.com", "+15551230002", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.CustomRole == rbac.RoleAdmin {
		t.Fatalf("self-registration granted AdminRole")
	}
	groups, _ := svc.ClaimGroups(ctx, user.ID)
	for _, g := range groups {
		if g == rbac.RoleAdmin {
			t.Fatalf("AdminRole membership via registration: %v", groups)
		}
	}
}

func TestIdentity_RegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	svc := NewIdentityService(setupIdentityTestDB(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "+15551230003", rbac.RoleDM); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "b@example.com", "+15551230004", rbac.RoleAS); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate register = %v, want ErrUsernameTaken", err)
	}
}

func TestIdentity_SetUserRolePreservesAdminMembership(t *testing.T) {
	t.Parallel()

	db := setupIdentityTestDB(t)
	svc := NewIdentityService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "c@example.com", "+15551230005", rbac.RoleAS)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Grant admin out of band, the way the bootstrap seed does.
	admin := models.GroupMembership{UserID: user.ID, GroupName: rbac.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("grant admin: %v", err)
	}

	if err := svc.SetUserRole(ctx, "carol", rbac.RoleDM); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}

	groups, err := svc.ClaimGroups(ctx, user.ID)
	if err != nil {
		t.Fatalf("ClaimGroups: %v", err)
	}
	hasAdmin, hasDM, hasAS := false, false, false
	for _, g := range groups {
		switch g {
		case rbac.RoleAdmin:
			hasAdmin = true
		case rbac.RoleDM:
			hasDM = true
		case rbac.RoleAS:
			hasAS = true
		}
	}
	if !hasAdmin {
		t.Fatalf("role change dropped AdminRole: %v", groups)
	}
	if !hasDM || hasAS {
		t.Fatalf("role change incomplete: %v", groups)
	}

	refreshed, err := svc.GetByUsername(ctx, "carol")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if refreshed.CustomRole != rbac.RoleDM {
		t.Fatalf("custom role attribute = %q", refreshed.CustomRole)
	}
}

func TestIdentity_SetUserRoleUnknownRole(t *testing.T) {
	t.Parallel()

	svc := NewIdentityService(setupIdentityTestDB(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dave", "d@example.com", "+15551230006", rbac.RoleAS); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.SetUserRole(ctx, "dave", "ghost"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("SetUserRole(ghost) = %v, want ErrRoleNotFound", err)
	}
}

func TestIdentity_BlockAndDelete(t *testing.T) {
	t.Parallel()

	svc := NewIdentityService(setupIdentityTestDB(t))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin", "e@example.com", "+15551230007", rbac.RoleDM); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.SetUserBlocked(ctx, "erin", true); err != nil {
		t.Fatalf("SetUserBlocked: %v", err)
	}
	user, err := svc.GetByUsername(ctx, "erin")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if user.Enabled {
		t.Fatalf("user still enabled after block")
	}

	if err := svc.SetUserBlocked(ctx, "erin", false); err != nil {
		t.Fatalf("SetUserBlocked: %v", err)
	}
	user, _ = svc.GetByUsername(ctx, "erin")
	if !user.Enabled {
		t.Fatalf("user still disabled after unblock")
	}

	if err := svc.DeleteUser(ctx, "erin"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := svc.GetByUsername(ctx, "erin"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted user readable: %v", err)
	}

	if err := svc.SetUserBlocked(ctx, "nobody", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("blocking a missing user = %v", err)
	}
}
