package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginStartRequest struct {
	Username string `json:"username"`
}

type LoginStartResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Challenge string    `json:"challenge"`
	PhoneHint string    `json:"phone_hint"`
}

type LoginVerifyRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Groups   []string  `json:"groups"`
}

// ErrorResponse is the wire shape of every failure: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
