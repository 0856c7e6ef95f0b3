package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/denizaksu/calcgate/internal/config"
	"github.com/denizaksu/calcgate/internal/dto"
	"github.com/denizaksu/calcgate/internal/models"
	"github.com/denizaksu/calcgate/internal/notify"
	"github.com/denizaksu/calcgate/internal/otp"
)

var (
	ErrUserDisabled       = errors.New("user is disabled")
	ErrChallengeFailed    = errors.New("challenge verification failed")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// AuthService drives the passwordless login protocol and issues token pairs.
type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	identity *IdentityService
	sessions otp.SessionStore
	notifier notify.Notifier
}

func NewAuthService(db *gorm.DB, cfg *config.Config, identity *IdentityService, sessions otp.SessionStore, notifier notify.Notifier) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		identity: identity,
		sessions: sessions,
		notifier: notifier,
	}
}

// StartLogin opens a login session and issues the one-time challenge.
func (s *AuthService) StartLogin(ctx context.Context, username string) (*dto.LoginStartResponse, error) {
	user, err := s.identity.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	directive := otp.DefineChallenge(nil)
	if directive.Challenge != otp.ChallengeName {
		return nil, fmt.Errorf("unexpected directive for fresh session")
	}

	secret, hint, err := otp.CreateChallenge(ctx, s.notifier, user.Phone)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.sessions.Create(ctx, user.Username, secret, hint, s.cfg.OTPTTL)
	if err != nil {
		return nil, err
	}

	return &dto.LoginStartResponse{
		SessionID: sessionID,
		Challenge: directive.Challenge,
		PhoneHint: hint,
	}, nil
}

// VerifyLogin checks the submitted answer, records the step, and re-runs the
// sequencer. The session is consumed on every terminal outcome, so a second
// submission against the same session fails regardless of its contents.
func (s *AuthService) VerifyLogin(ctx context.Context, sessionID uuid.UUID, answer string) (*dto.AuthResponse, error) {
	steps, err := s.sessions.PriorSteps(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	secret, err := s.sessions.Secret(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	step := otp.Step{Challenge: otp.ChallengeName, Result: otp.VerifyChallenge(answer, secret)}
	if err := s.sessions.RecordResult(ctx, sessionID, step); err != nil {
		return nil, err
	}
	steps = append(steps, step)

	directive := otp.DefineChallenge(steps)
	if !directive.IssueTokens {
		_ = s.sessions.Consume(ctx, sessionID)
		return nil, ErrChallengeFailed
	}

	username, err := s.sessions.Username(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	_ = s.sessions.Consume(ctx, sessionID)

	user, err := s.identity.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}
	return s.generateTokenPair(ctx, user)
}

// AdminLogin authenticates the env-seeded bootstrap admin by password. OTP
// users carry no password hash and can never use this path.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*dto.AuthResponse, error) {
	user, err := s.identity.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" || !user.Enabled {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	tokenHash := hashToken(refreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.WithContext(ctx).Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.WithContext(ctx).Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}
	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := hashToken(refreshToken)
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	groups, err := s.identity.ClaimGroups(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.generateAccessToken(user, groups)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Groups:   groups,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, groups []string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"groups":   groups,
		"role":     user.CustomRole,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
