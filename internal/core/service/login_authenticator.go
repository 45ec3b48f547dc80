package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// LoginAuthenticator verifies a username/password pair. Every failure,
// whether the user is unknown, the password is wrong or the store is
// unreachable, surfaces as domain.ErrInvalidCredentials.
type LoginAuthenticator struct {
	resolver  ports.IdentityResolver
	hasher    ports.PasswordHasher
	dummyHash string
	log       zerolog.Logger
}

func NewLoginAuthenticator(resolver ports.IdentityResolver, hasher ports.PasswordHasher, log zerolog.Logger) (*LoginAuthenticator, error) {
	// Unknown usernames are still checked against a real hash so the
	// response time does not reveal whether the account exists.
	dummy, err := hasher.Hash("login-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("login authenticator: %w", err)
	}
	return &LoginAuthenticator{
		resolver:  resolver,
		hasher:    hasher,
		dummyHash: dummy,
		log:       log.With().Str("component", "login").Logger(),
	}, nil
}

// Authenticate returns the subject and role to mint a token for.
func (a *LoginAuthenticator) Authenticate(ctx context.Context, username, password string) (string, domain.Role, error) {
	if username == "" || password == "" {
		return "", "", domain.ErrInvalidCredentials
	}

	creds, err := a.resolver.Resolve(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			a.log.Error().Err(err).Msg("identity lookup failed during login")
		}
		a.hasher.Verify(password, a.dummyHash)
		return "", "", domain.ErrInvalidCredentials
	}

	if !a.hasher.Verify(password, creds.PasswordHash) {
		return "", "", domain.ErrInvalidCredentials
	}
	return creds.Username, creds.Role, nil
}
