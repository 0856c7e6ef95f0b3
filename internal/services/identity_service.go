package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/rbac"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already registered")
	ErrRoleNotFound  = errors.New("role does not exist")
)

// IdentityService owns the user and group-membership records that the
// original system kept in the identity provider.
type IdentityService struct {
	db *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

func (s *IdentityService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an OTP user and places them in their selected role group.
// Only the two non-admin built-in roles are selectable; anything else falls
// back to ASrole. AdminRole is never grantable here.
func (s *IdentityService) Register(ctx context.Context, username, email, phone, role string) (*models.User, error) {
	if role != rbac.RoleAS && role != rbac.RoleDM {
		role = rbac.RoleAS
	}

	var existing models.User
	if err := s.db.WithContext(ctx).First(&existing, "username = ?", username).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	user := models.User{
		ID:         uuid.New(),
		Username:   username,
		Email:      email,
		Phone:      phone,
		CustomRole: role,
		Enabled:    true,
		Status:     "CONFIRMED",
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		membership := models.GroupMembership{UserID: user.ID, GroupName: role}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ClaimGroups returns a user's group names in the order they are placed into
// token claims: built-ins in declaration order, then customs by name. The
// authorization check scans claims first-match-wins, so this order is pinned
// here rather than left to the database.
func (s *IdentityService) ClaimGroups(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var memberships []models.GroupMembership
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		present[m.GroupName] = true
	}

	groups := make([]string, 0, len(memberships))
	for _, name := range rbac.BuiltinOrder {
		if present[name] {
			groups = append(groups, name)
			delete(present, name)
		}
	}
	customs := make([]string, 0, len(present))
	for name := range present {
		customs = append(customs, name)
	}
	sort.Strings(customs)
	return append(groups, customs...), nil
}

// ListUsers returns every user enriched with their group memberships and
// custom role attribute.
func (s *IdentityService) ListUsers(ctx context.Context) ([]dto.UserView, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}

	views := make([]dto.UserView, 0, len(users))
	for _, u := range users {
		groups, err := s.ClaimGroups(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, dto.UserView{
			Username: u.Username,
			Email:    u.Email,
			Phone:    u.Phone,
			Role:     u.CustomRole,
			Groups:   groups,
			Enabled:  u.Enabled,
			Status:   u.Status,
			Created:  u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views, nil
}

// SetUserRole reassigns a user's role: it removes the user's non-admin group
// memberships, adds exactly one new one and updates the custom role
// attribute. The user's AdminRole membership, if any, is never touched.
// Stale-membership removal is best-effort and never blocks the reassignment.
func (s *IdentityService) SetUserRole(ctx context.Context, username, role string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "name = ?", role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	if err := s.db.WithContext(ctx).
		Delete(&models.GroupMembership{}, "user_id = ? AND group_name <> ?", user.ID, rbac.RoleAdmin).Error; err != nil {
		slog.Warn("stale membership removal failed", "username", username, "error", err)
	}

	membership := models.GroupMembership{UserID: user.ID, GroupName: role}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(user).Update("custom_role", role).Error
}

// SetUserBlocked enables or disables a user.
func (s *IdentityService) SetUserBlocked(ctx context.Context, username string, blocked bool) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("enabled", !blocked).Error
}

// DeleteUser removes the user along with their memberships and sessions.
func (s *IdentityService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tx.Delete(&models.GroupMembership{}, "user_id = ?", user.ID)
		tx.Delete(&models.RefreshToken{}, "user_id = ?", user.ID)
		tx.Delete(&models.AuthSession{}, "username = ?", user.Username)
		// Hard delete: a soft-deleted row would keep the username index
		// occupied and block re-registration.
		return tx.Unscoped().Delete(user).Error
	})
}
