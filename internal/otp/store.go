package otp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/denizaksu/calcgate/internal/models"
)

var ErrSessionNotFound = errors.New("auth session not found or expired")

// SessionStore is the narrow session-continuity contract between the three
// protocol calls.
type SessionStore interface {
	Create(ctx context.Context, username, secret, hint string, ttl time.Duration) (uuid.UUID, error)
	PriorSteps(ctx context.Context, session uuid.UUID) ([]Step, error)
	Secret(ctx context.Context, session uuid.UUID) (string, error)
	Username(ctx context.Context, session uuid.UUID) (string, error)
	RecordResult(ctx context.Context, session uuid.UUID, step Step) error
	Hint(ctx context.Context, session uuid.UUID) (string, error)
	Consume(ctx context.Context, session uuid.UUID) error
}

// DBSessionStore keeps sessions in the auth_sessions table.
type DBSessionStore struct {
	db *gorm.DB
}

func NewDBSessionStore(db *gorm.DB) *DBSessionStore {
	return &DBSessionStore{db: db}
}

func (s *DBSessionStore) Create(ctx context.Context, username, secret, hint string, ttl time.Duration) (uuid.UUID, error) {
	session := models.AuthSession{
		ID:        uuid.New(),
		Username:  username,
		Secret:    secret,
		PhoneHint: hint,
		Steps:     datatypes.JSON([]byte("[]")),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return uuid.Nil, err
	}
	return session.ID, nil
}

func (s *DBSessionStore) load(ctx context.Context, session uuid.UUID) (*models.AuthSession, error) {
	var row models.AuthSession
	err := s.db.WithContext(ctx).First(&row, "id = ?", session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &row, nil
}

func (s *DBSessionStore) PriorSteps(ctx context.Context, session uuid.UUID) ([]Step, error) {
	row, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	var steps []Step
	if err := json.Unmarshal(row.Steps, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (s *DBSessionStore) Secret(ctx context.Context, session uuid.UUID) (string, error) {
	row, err := s.load(ctx, session)
	if err != nil {
		return "", err
	}
	return row.Secret, nil
}

func (s *DBSessionStore) Username(ctx context.Context, session uuid.UUID) (string, error) {
	row, err := s.load(ctx, session)
	if err != nil {
		return "", err
	}
	return row.Username, nil
}

func (s *DBSessionStore) Hint(ctx context.Context, session uuid.UUID) (string, error) {
	row, err := s.load(ctx, session)
	if err != nil {
		return "", err
	}
	return row.PhoneHint, nil
}

func (s *DBSessionStore) RecordResult(ctx context.Context, session uuid.UUID, step Step) error {
	row, err := s.load(ctx, session)
	if err != nil {
		return err
	}
	var steps []Step
	if err := json.Unmarshal(row.Steps, &steps); err != nil {
		return err
	}
	steps = append(steps, step)
	encoded, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.AuthSession{}).
		Where("id = ?", session).
		Update("steps", datatypes.JSON(encoded)).Error
}

// Consume deletes the session once the protocol reaches a terminal state.
func (s *DBSessionStore) Consume(ctx context.Context, session uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&models.AuthSession{}, "id = ?", session).Error
}
