package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// IdentityResolver reads credentials straight from the user store on every
// call. There is no cache: a deleted account or changed password takes
// effect on the very next request.
type IdentityResolver struct {
	users ports.UserRepository
}

var _ ports.IdentityResolver = (*IdentityResolver)(nil)

func NewIdentityResolver(users ports.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve returns the credentials for username. An account without a
// password hash cannot authenticate and is reported as not found.
func (r *IdentityResolver) Resolve(ctx context.Context, username string) (*domain.Credentials, error) {
	if username == "" {
		return nil, domain.ErrUserNotFound
	}

	user, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, domain.ErrUserNotFound
	}

	return &domain.Credentials{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
	}, nil
}
