package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error // if set, every lookup returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByPhoneNumber(_ context.Context, phone string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.PhoneNumber == phone })
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%03d", r.nextID)
	r.byID[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.byID[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

// seed inserts a user whose password hash is produced by plainHasher.
func (r *stubUserRepo) seed(username string, role domain.Role, password string) *domain.User {
	u, err := r.Create(context.Background(), &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: plainHasher{}.mustHash(password),
		Role:         role,
	})
	if err != nil {
		panic(err)
	}
	return u
}

// ---------------------------------------------------------------------------
// Deterministic hasher: fast and good enough to exercise the flows.
// ---------------------------------------------------------------------------

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) {
	if p == "" {
		return "", domain.ErrInvalidInput
	}
	return "hashed:" + p, nil
}

func (h plainHasher) mustHash(p string) string {
	s, _ := h.Hash(p)
	return s
}

func (plainHasher) Verify(p, hash string) bool {
	return strings.HasPrefix(hash, "hashed:") && hash == "hashed:"+p
}

// ---------------------------------------------------------------------------
// Resolver, limiter and audit stubs
// ---------------------------------------------------------------------------

type stubResolver struct {
	resolveFn func(ctx context.Context, username string) (*domain.Credentials, error)
	calls     int
}

func (s *stubResolver) Resolve(ctx context.Context, username string) (*domain.Credentials, error) {
	s.calls++
	return s.resolveFn(ctx, username)
}

type stubLimiter struct {
	max      int
	failures map[string]int
	err      error
}

func newStubLimiter(limit int) *stubLimiter {
	return &stubLimiter{max: limit, failures: make(map[string]int)}
}

func (l *stubLimiter) Allowed(_ context.Context, username string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.failures[username] < l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, username string) error {
	l.failures[username]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, username string) error {
	delete(l.failures, username)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []ports.AuditEventInput
}

func (s *recordingSink) Enqueue(e ports.AuditEventInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

var errStoreDown = errors.New("store unreachable")
