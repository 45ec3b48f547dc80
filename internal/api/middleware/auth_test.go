package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
)

type stubAuthenticator struct {
	principal *domain.Principal
	outcome   service.Outcome
	header    string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, header string) (*domain.Principal, service.Outcome) {
	s.header = header
	return s.principal, s.outcome
}

func runAuthenticate(t *testing.T, ra RequestAuthenticator, header string) (*domain.Principal, bool, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		got    *domain.Principal
		called bool
	)
	handler := Authenticate(ra)(func(c echo.Context) error {
		called = true
		got, _ = domain.PrincipalFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	return got, called, rec
}

func TestAuthenticate_InstallsPrincipal(t *testing.T) {
	alice, _ := domain.NewPrincipal("alice", domain.RoleUser)
	stub := &stubAuthenticator{principal: alice, outcome: service.OutcomeAuthenticated}

	got, _, rec := runAuthenticate(t, stub, "Bearer abc")

	if stub.header != "Bearer abc" {
		t.Fatalf("expected header to be forwarded, got %q", stub.header)
	}
	if got == nil || got.Username != "alice" || got.Authority != "ROLE_USER" {
		t.Fatalf("expected alice's principal, got %+v", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_NeverRejects(t *testing.T) {
	outcomes := []service.Outcome{
		service.OutcomeNoToken,
		service.OutcomeMalformed,
		service.OutcomeBadSignature,
		service.OutcomeExpired,
		service.OutcomeIdentityNotFound,
		service.OutcomeResolverError,
	}
	for _, outcome := range outcomes {
		t.Run(string(outcome), func(t *testing.T) {
			got, called, rec := runAuthenticate(t, &stubAuthenticator{outcome: outcome}, "Bearer x")
			if !called || got != nil {
				t.Fatalf("expected anonymous pass-through, got principal %+v", got)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		})
	}
}

func TestAuthenticate_WithRealPipeline(t *testing.T) {
	// Missing header goes through the real authenticator without a codec call.
	ra := service.NewRequestAuthenticator(nil, nil, zeroLogger())
	got, _, _ := runAuthenticate(t, ra, "")
	if got != nil {
		t.Fatalf("expected no principal without a header")
	}
}
