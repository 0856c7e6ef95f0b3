package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denizaksu/calcgate/internal/models"
)

var ErrProtectedRole = errors.New("cannot delete built-in role")

// RoleView is one row of the effective role listing.
type RoleView struct {
	Name        string   `json:"roleName"`
	Permissions []string `json:"permissions"`
	BuiltIn     bool     `json:"isDefault"`
}

// Store persists custom roles and keeps the mirror group constructs in sync.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// LoadEffective builds the effective role table: built-ins overlaid with the
// custom roles ordered by name. An unreachable role store degrades to
// built-ins only; calculation with built-in roles must not depend on it.
func (s *Store) LoadEffective(ctx context.Context) *Table {
	table := NewTable()

	var rows []models.Role
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		slog.Warn("custom role load failed, using built-in roles only", "error", err)
		return table
	}

	for _, row := range rows {
		table.Set(row.Name, decodePermissions(row.Permissions))
	}
	return table
}

// List returns the effective roles for the admin surface, built-ins first.
func (s *Store) List(ctx context.Context) []RoleView {
	table := s.LoadEffective(ctx)
	builtin := make(map[string]bool, len(BuiltinOrder))
	for _, name := range BuiltinOrder {
		builtin[name] = true
	}

	views := make([]RoleView, 0, len(table.Roles()))
	for _, name := range table.Roles() {
		perms, _ := table.Permissions(name)
		views = append(views, RoleView{Name: name, Permissions: perms, BuiltIn: builtin[name]})
	}
	return views
}

// CreateRole upserts a custom role and best-effort creates the mirror group.
// Overwriting an existing custom role's permission set is allowed; a group
// that already exists is not an error.
func (s *Store) CreateRole(ctx context.Context, name string, permissions []string) error {
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return err
	}

	role := models.Role{Name: name, Permissions: datatypes.JSON(encoded)}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "updated_at"}),
	}).Create(&role).Error; err != nil {
		return err
	}

	group := models.Group{Name: name, Description: "Custom role: " + name}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
		slog.Warn("mirror group create failed", "role", name, "error", err)
	}
	return nil
}

// DeleteRole removes a custom role. Built-in names fail before any mutation.
// Removal of the mirror group and its memberships is best-effort.
func (s *Store) DeleteRole(ctx context.Context, name string) error {
	for _, builtin := range BuiltinOrder {
		if name == builtin {
			return ErrProtectedRole
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.Role{}, "name = ?", name).Error; err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.GroupMembership{}, "group_name = ?", name).Error; err != nil {
		slog.Warn("mirror group membership cleanup failed", "role", name, "error", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Group{}, "name = ? AND built_in = false", name).Error; err != nil {
		slog.Warn("mirror group delete failed", "role", name, "error", err)
	}
	return nil
}

func decodePermissions(raw datatypes.JSON) []string {
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		slog.Warn("malformed permission set in role store", "error", err)
		return nil
	}
	return perms
}
