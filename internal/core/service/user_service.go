package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// UserService implements administrative account management.
type UserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	audit  ports.AuditSink
	log    zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, audit ports.AuditSink, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		audit:  audit,
		log:    log.With().Str("component", "users").Logger(),
	}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, actor string, in ports.UpsertUserInput) (*domain.User, error) {
	in = normalise(in)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("create user: %w: username, email and password are required", domain.ErrInvalidInput)
	}
	role, err := roleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Username: in.Username, Email: in.Email, PhoneNumber: in.PhoneNumber}
	if err := ensureUnique(ctx, s.users, u, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u.PasswordHash = hash
	u.Role = role
	u.CreatedAt = now
	u.UpdatedAt = now

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	s.emit(domain.EventUserRegistered, created.Username, actor)
	return created, nil
}

// Update replaces the editable fields of user id. The password is only
// changed when in.Password is non-empty.
func (s *UserService) Update(ctx context.Context, actor, id string, in ports.UpsertUserInput) (*domain.User, error) {
	in = normalise(in)
	if in.Username == "" || in.Email == "" {
		return nil, fmt.Errorf("update user: %w: username and email are required", domain.ErrInvalidInput)
	}

	existing, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role := existing.Role
	if in.Role != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, err
		}
	}

	updated := *existing
	updated.Username = in.Username
	updated.Email = in.Email
	updated.PhoneNumber = in.PhoneNumber
	updated.Role = role
	if err := ensureUnique(ctx, s.users, &updated, existing.ID); err != nil {
		return nil, err
	}
	if in.Password != "" {
		if updated.PasswordHash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = time.Now().UTC()

	saved, err := s.users.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	s.emit(domain.EventUserUpdated, saved.Username, actor)
	return saved, nil
}

func (s *UserService) Delete(ctx context.Context, actor, id string) error {
	existing, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.emit(domain.EventUserDeleted, existing.Username, actor)
	s.log.Info().Str("username", existing.Username).Str("actor", actor).Msg("user deleted")
	return nil
}

// EnsureAdmin creates an ADMIN account with the given credentials unless a
// user with that username already exists. It is used to bootstrap a fresh
// deployment.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	_, err = s.Create(ctx, "bootstrap", ports.UpsertUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Info().Str("username", username).Msg("bootstrap admin created")
	return nil
}

func (s *UserService) emit(t domain.AuthEventType, username, actor string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(ports.AuditEventInput{Type: string(t), Username: username, Actor: actor})
}

func normalise(in ports.UpsertUserInput) ports.UpsertUserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

func roleOrDefault(s string) (domain.Role, error) {
	if s == "" {
		return domain.RoleUser, nil
	}
	return domain.ParseRole(s)
}
