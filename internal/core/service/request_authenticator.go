package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// BearerPrefix is the only authorization scheme recognised.
const BearerPrefix = "Bearer "

// Outcome explains how a request left the authentication pipeline.
type Outcome string

const (
	OutcomeAuthenticated        Outcome = "authenticated"
	OutcomeAlreadyAuthenticated Outcome = "already_authenticated"
	OutcomeNoToken              Outcome = "no_token"
	OutcomeMalformed            Outcome = "malformed"
	OutcomeBadSignature         Outcome = "bad_signature"
	OutcomeIdentityNotFound     Outcome = "identity_not_found"
	OutcomeResolverError        Outcome = "resolver_error"
	OutcomeCancelled            Outcome = "cancelled"
	OutcomeSubjectMismatch      Outcome = "subject_mismatch"
	OutcomeExpired              Outcome = "expired"
	OutcomeUnknownRole          Outcome = "unknown_role"
)

// RequestAuthenticator turns an Authorization header into a principal.
// It never fails a request: every problem ends in "no principal" and the
// caller's authorization layer decides what an anonymous caller may do.
type RequestAuthenticator struct {
	codec    ports.TokenCodec
	resolver ports.IdentityResolver
	now      func() time.Time
	log      zerolog.Logger
}

// RequestAuthenticatorOption customises a RequestAuthenticator.
type RequestAuthenticatorOption func(*RequestAuthenticator)

// WithNow overrides the clock used for the expiry check.
func WithNow(now func() time.Time) RequestAuthenticatorOption {
	return func(a *RequestAuthenticator) { a.now = now }
}

func NewRequestAuthenticator(codec ports.TokenCodec, resolver ports.IdentityResolver, log zerolog.Logger, opts ...RequestAuthenticatorOption) *RequestAuthenticator {
	a := &RequestAuthenticator{
		codec:    codec,
		resolver: resolver,
		now:      time.Now,
		log:      log.With().Str("component", "request_auth").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate runs the pipeline for one request. The returned principal is
// non-nil only for OutcomeAuthenticated and OutcomeAlreadyAuthenticated.
// Token contents are never logged.
func (a *RequestAuthenticator) Authenticate(ctx context.Context, header string) (*domain.Principal, Outcome) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, OutcomeNoToken
	}
	raw := strings.TrimPrefix(header, BearerPrefix)

	claims, err := a.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, domain.ErrTokenBadSignature) {
			a.log.Debug().Msg("rejected token with invalid signature")
			return nil, OutcomeBadSignature
		}
		return nil, OutcomeMalformed
	}
	subject := claims.Subject

	// An identity established earlier in the chain is never overridden.
	if existing, ok := domain.PrincipalFrom(ctx); ok {
		return existing, OutcomeAlreadyAuthenticated
	}

	creds, err := a.resolver.Resolve(ctx, subject)
	if ctx.Err() != nil {
		return nil, OutcomeCancelled
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, OutcomeIdentityNotFound
		}
		a.log.Warn().Err(err).Msg("identity store unavailable, continuing unauthenticated")
		return nil, OutcomeResolverError
	}

	if subject != creds.Username {
		return nil, OutcomeSubjectMismatch
	}
	if a.codec.IsExpired(claims, a.now()) {
		return nil, OutcomeExpired
	}

	principal, ok := domain.NewPrincipal(creds.Username, creds.Role)
	if !ok {
		a.log.Warn().Str("role", string(creds.Role)).Msg("stored role has no authority")
		return nil, OutcomeUnknownRole
	}
	return principal, OutcomeAuthenticated
}
