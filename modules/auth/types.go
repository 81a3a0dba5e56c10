package auth

import (
	"context"
	"errors"

	domain "github.com/example/task-manager/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login. Expected failures are
// reported in ErrorCode rather than as a service error.
type SessionResponse struct {
	Session   *domain.Session `json:"session,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User     *domain.Profile `json:"user,omitempty"`
	NotFound bool            `json:"not_found,omitempty"`
}

// AuthPort defines the authentication operations other modules use.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Session, error)
	Login(ctx context.Context, req LoginRequest) (*domain.Session, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
}

// errorCodes maps the expected auth failures to their wire codes.
var errorCodes = map[string]error{
	"invalid_credentials": ErrInvalidCredentials,
	"user_exists":         ErrUserExists,
	"invalid_name":        ErrInvalidName,
	"invalid_email":       ErrInvalidEmail,
	"weak_password":       ErrWeakPassword,
	"password_too_long":   ErrPasswordTooLong,
}

// errorCode returns the wire code of an expected failure, or "" for
// anything else.
func errorCode(err error) string {
	for code, target := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}
