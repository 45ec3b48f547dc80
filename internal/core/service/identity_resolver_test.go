package service

import (
	"context"
	"errors"
	"testing"

	"github.com/99minutos/auth-service/internal/core/domain"
)

func TestIdentityResolver_Found(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("alice", domain.RoleUser, "pw")

	creds, err := NewIdentityResolver(repo).Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.Username != "alice" || creds.Role != domain.RoleUser || creds.PasswordHash == "" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestIdentityResolver_NotFound(t *testing.T) {
	repo := newStubUserRepo()
	repo.byID["x"] = &domain.User{ID: "x", Username: "nohash", Role: domain.RoleUser}
	r := NewIdentityResolver(repo)

	for _, name := range []string{"", "ghost", "nohash"} {
		if _, err := r.Resolve(context.Background(), name); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("Resolve(%q): expected ErrUserNotFound, got %v", name, err)
		}
	}
}

func TestIdentityResolver_StoreError(t *testing.T) {
	repo := newStubUserRepo()
	repo.err = errStoreDown

	_, err := NewIdentityResolver(repo).Resolve(context.Background(), "alice")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("store failure must not look like a missing user")
	}
}

func TestIdentityResolver_NoCaching(t *testing.T) {
	repo := newStubUserRepo()
	u := repo.seed("alice", domain.RoleUser, "pw")
	r := NewIdentityResolver(repo)

	if _, err := r.Resolve(context.Background(), "alice"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_ = repo.Delete(context.Background(), u.ID)
	if _, err := r.Resolve(context.Background(), "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("deleted account must stop resolving immediately, got %v", err)
	}
}
