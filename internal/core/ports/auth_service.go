package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RegisterInput carries a self-service registration request.
type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	Role        string // empty means USER
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresIn int64 // seconds
	Username  string
	Role      domain.Role
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password, remoteIP string) (*LoginResult, error)
}
