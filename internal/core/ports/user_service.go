package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// UpsertUserInput carries the fields an administrator can set on an account.
// An empty Password on update keeps the current password.
type UpsertUserInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	Role        string
}

// UserService is the administrative account management API.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, actor string, in UpsertUserInput) (*domain.User, error)
	Update(ctx context.Context, actor, id string, in UpsertUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor, id string) error
}
