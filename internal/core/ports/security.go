package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// TokenClaims is the decoded payload of a bearer token.
type TokenClaims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// TokenCodec issues and verifies signed bearer tokens. Decode checks
// structure and signature only; expiry is checked with IsExpired.
type TokenCodec interface {
	Issue(subject string, claims map[string]any) (string, error)
	Decode(token string) (*TokenClaims, error)
	ExtractSubject(token string) (string, error)
	ExtractExpiry(token string) (time.Time, error)
	IsExpired(claims *TokenClaims, now time.Time) bool
	TTL() time.Duration
}

// PasswordHasher is a one-way credential hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// LoginLimiter throttles repeated failed logins for the same username.
type LoginLimiter interface {
	Allowed(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Enqueue(event AuditEventInput)
}

// AuditEventInput is the DTO handed to the audit dispatcher.
type AuditEventInput struct {
	Type     string
	Username string
	Actor    string
	RemoteIP string
}

// IdentityResolver produces the authoritative credentials for a username,
// failing with domain.ErrUserNotFound when none exist.
type IdentityResolver interface {
	Resolve(ctx context.Context, username string) (*domain.Credentials, error)
}
