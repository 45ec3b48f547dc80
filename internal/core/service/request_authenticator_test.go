package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/infrastructure/token"
)

var t0 = time.Unix(1_700_000_000, 0)

func newTestCodec(t *testing.T, secret string) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(token.Config{Secret: []byte(secret), TTL: time.Hour}, token.WithClock(func() time.Time { return t0 }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func issue(t *testing.T, c *token.Codec, subject string) string {
	t.Helper()
	tok, err := c.Issue(subject, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestRequestAuthenticator_Outcomes(t *testing.T) {
	codec := newTestCodec(t, "K")
	foreign := newTestCodec(t, "other-key")

	repo := newStubUserRepo()
	repo.seed("alice", domain.RoleUser, "pw")
	repo.seed("root", domain.RoleAdmin, "pw")
	repo.byID["odd"] = &domain.User{ID: "odd", Username: "odd", PasswordHash: "hashed:pw", Role: "SUPERUSER"}

	ra := NewRequestAuthenticator(codec, NewIdentityResolver(repo), zerolog.Nop(),
		WithNow(func() time.Time { return t0.Add(10 * time.Second) }))

	tests := []struct {
		name          string
		header        string
		wantOutcome   Outcome
		wantAuthority string
	}{
		{"no header", "", OutcomeNoToken, ""},
		{"basic scheme", "Basic YWxpY2U6cHc=", OutcomeNoToken, ""},
		{"lowercase bearer", "bearer " + issue(t, codec, "alice"), OutcomeNoToken, ""},
		{"malformed", "Bearer not-a-token", OutcomeMalformed, ""},
		{"empty token", "Bearer ", OutcomeMalformed, ""},
		{"foreign signature", "Bearer " + issue(t, foreign, "alice"), OutcomeBadSignature, ""},
		{"deleted account", "Bearer " + issue(t, codec, "bob"), OutcomeIdentityNotFound, ""},
		{"unknown stored role", "Bearer " + issue(t, codec, "odd"), OutcomeUnknownRole, ""},
		{"user", "Bearer " + issue(t, codec, "alice"), OutcomeAuthenticated, "ROLE_USER"},
		{"admin", "Bearer " + issue(t, codec, "root"), OutcomeAuthenticated, "ROLE_ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, outcome := ra.Authenticate(context.Background(), tt.header)
			if outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s", outcome, tt.wantOutcome)
			}
			if tt.wantAuthority == "" {
				if p != nil {
					t.Fatalf("expected no principal, got %+v", p)
				}
				return
			}
			if p == nil || p.Authority != tt.wantAuthority {
				t.Fatalf("expected authority %s, got %+v", tt.wantAuthority, p)
			}
		})
	}
}

func TestRequestAuthenticator_Expired(t *testing.T) {
	codec := newTestCodec(t, "K")
	repo := newStubUserRepo()
	repo.seed("alice", domain.RoleUser, "pw")
	tok := issue(t, codec, "alice")

	ra := NewRequestAuthenticator(codec, NewIdentityResolver(repo), zerolog.Nop(),
		WithNow(func() time.Time { return t0.Add(3601 * time.Second) }))

	if p, outcome := ra.Authenticate(context.Background(), "Bearer "+tok); p != nil || outcome != OutcomeExpired {
		t.Fatalf("expected expired/no principal, got %v %+v", outcome, p)
	}
}

func TestRequestAuthenticator_SubjectMismatch(t *testing.T) {
	codec := newTestCodec(t, "K")
	// A store that matches case-insensitively hands back a different spelling.
	resolver := &stubResolver{resolveFn: func(_ context.Context, _ string) (*domain.Credentials, error) {
		return &domain.Credentials{Username: "Alice", PasswordHash: "x", Role: domain.RoleUser}, nil
	}}
	ra := NewRequestAuthenticator(codec, resolver, zerolog.Nop(), WithNow(func() time.Time { return t0 }))

	if p, outcome := ra.Authenticate(context.Background(), "Bearer "+issue(t, codec, "alice")); p != nil || outcome != OutcomeSubjectMismatch {
		t.Fatalf("expected subject mismatch, got %v %+v", outcome, p)
	}
}

func TestRequestAuthenticator_ResolverError(t *testing.T) {
	codec := newTestCodec(t, "K")
	resolver := &stubResolver{resolveFn: func(_ context.Context, _ string) (*domain.Credentials, error) {
		return nil, errStoreDown
	}}
	ra := NewRequestAuthenticator(codec, resolver, zerolog.Nop(), WithNow(func() time.Time { return t0 }))

	if p, outcome := ra.Authenticate(context.Background(), "Bearer "+issue(t, codec, "alice")); p != nil || outcome != OutcomeResolverError {
		t.Fatalf("store failure must fail closed, got %v %+v", outcome, p)
	}
}

func TestRequestAuthenticator_CancelledDuringResolve(t *testing.T) {
	codec := newTestCodec(t, "K")
	ctx, cancel := context.WithCancel(context.Background())
	resolver := &stubResolver{resolveFn: func(_ context.Context, username string) (*domain.Credentials, error) {
		cancel()
		return &domain.Credentials{Username: username, PasswordHash: "x", Role: domain.RoleUser}, nil
	}}
	ra := NewRequestAuthenticator(codec, resolver, zerolog.Nop(), WithNow(func() time.Time { return t0 }))

	if p, outcome := ra.Authenticate(ctx, "Bearer "+issue(t, codec, "alice")); p != nil || outcome != OutcomeCancelled {
		t.Fatalf("cancelled request must not install a principal, got %v %+v", outcome, p)
	}
}

func TestRequestAuthenticator_KeepsExistingPrincipal(t *testing.T) {
	codec := newTestCodec(t, "K")
	resolver := &stubResolver{resolveFn: func(_ context.Context, username string) (*domain.Credentials, error) {
		return &domain.Credentials{Username: username, PasswordHash: "x", Role: domain.RoleAdmin}, nil
	}}
	ra := NewRequestAuthenticator(codec, resolver, zerolog.Nop(), WithNow(func() time.Time { return t0 }))

	earlier, _ := domain.NewPrincipal("service-account", domain.RoleUser)
	ctx := domain.WithPrincipal(context.Background(), earlier)

	p, outcome := ra.Authenticate(ctx, "Bearer "+issue(t, codec, "root"))
	if outcome != OutcomeAlreadyAuthenticated || p != earlier {
		t.Fatalf("existing principal must be kept, got %v %+v", outcome, p)
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver must not be consulted when already authenticated")
	}
}
