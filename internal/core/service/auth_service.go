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

// TokenTypeBearer is the token type announced to clients on login.
const TokenTypeBearer = "Bearer"

// AuthService implements self-service registration and login.
type AuthService struct {
	users            ports.UserRepository
	hasher           ports.PasswordHasher
	login            *LoginAuthenticator
	codec            ports.TokenCodec
	limiter          ports.LoginLimiter
	audit            ports.AuditSink
	allowAdminSignup bool
	log              zerolog.Logger
}

// AuthServiceOption customises an AuthService.
type AuthServiceOption func(*AuthService)

// WithLoginLimiter enables throttling of repeated failed logins.
func WithLoginLimiter(l ports.LoginLimiter) AuthServiceOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithAuditSink sends registration and login events to sink.
func WithAuditSink(sink ports.AuditSink) AuthServiceOption {
	return func(s *AuthService) { s.audit = sink }
}

// WithAdminSignup lets self-registration request the ADMIN role.
func WithAdminSignup(allow bool) AuthServiceOption {
	return func(s *AuthService) { s.allowAdminSignup = allow }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	login *LoginAuthenticator,
	codec ports.TokenCodec,
	log zerolog.Logger,
	opts ...AuthServiceOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		login:  login,
		codec:  codec,
		log:    log.With().Str("component", "auth").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("register: %w: username, email and password are required", domain.ErrInvalidInput)
	}

	role, err := roleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		return nil, domain.ErrForbidden
	}

	candidate := &domain.User{Username: in.Username, Email: in.Email, PhoneNumber: in.PhoneNumber}
	if err := ensureUnique(ctx, s.users, candidate, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	candidate.PasswordHash = hash
	candidate.Role = role
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	created, err := s.users.Create(ctx, candidate)
	if err != nil {
		return nil, err
	}

	s.emit(domain.EventUserRegistered, created.Username, "", "")
	s.log.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

// Login verifies the credentials and issues a bearer token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password, remoteIP string) (*ports.LoginResult, error) {
	if s.limiter != nil && username != "" {
		allowed, err := s.limiter.Allowed(ctx, username)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		} else if !allowed {
			s.emit(domain.EventLoginThrottled, username, "", remoteIP)
			return nil, domain.ErrTooManyAttempts
		}
	}

	subject, role, err := s.login.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) && s.limiter != nil && username != "" {
			if lerr := s.limiter.RecordFailure(ctx, username); lerr != nil {
				s.log.Warn().Err(lerr).Msg("failed to record login failure")
			}
		}
		s.emit(domain.EventLoginFailed, username, "", remoteIP)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(subject, map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.limiter != nil {
		if lerr := s.limiter.Reset(ctx, subject); lerr != nil {
			s.log.Warn().Err(lerr).Msg("failed to reset login failures")
		}
	}
	s.emit(domain.EventLoginSucceeded, subject, "", remoteIP)

	return &ports.LoginResult{
		Token:     token,
		TokenType: TokenTypeBearer,
		ExpiresIn: int64(s.codec.TTL() / time.Second),
		Username:  subject,
		Role:      role,
	}, nil
}

func (s *AuthService) emit(t domain.AuthEventType, username, actor, remoteIP string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(ports.AuditEventInput{
		Type:     string(t),
		Username: username,
		Actor:    actor,
		RemoteIP: remoteIP,
	})
}

// ensureUnique checks username, email and phone number against every user
// other than selfID.
func ensureUnique(ctx context.Context, users ports.UserRepository, u *domain.User, selfID string) error {
	checks := []struct {
		value  string
		find   func(context.Context, string) (*domain.User, error)
		errDup error
	}{
		{u.Username, users.FindByUsername, domain.ErrUserExists},
		{u.Email, users.FindByEmail, domain.ErrEmailTaken},
		{u.PhoneNumber, users.FindByPhoneNumber, domain.ErrPhoneTaken},
	}

	for _, c := range checks {
		if c.value == "" {
			continue
		}
		existing, err := c.find(ctx, c.value)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			continue
		case err != nil:
			return fmt.Errorf("uniqueness check: %w", err)
		case existing.ID != selfID:
			return c.errDup
		}
	}
	return nil
}
