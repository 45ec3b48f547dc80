package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
)

// RequestAuthenticator evaluates an Authorization header value.
type RequestAuthenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.Principal, service.Outcome)
}

// Authenticate installs the caller's principal into the request context when
// the bearer token checks out. It never rejects a request: anonymous callers
// continue down the chain and RequireRole decides what they may reach.
func Authenticate(ra RequestAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p, outcome := ra.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			metrics.TokenValidationsTotal.WithLabelValues(string(outcome)).Inc()

			if outcome == service.OutcomeAuthenticated {
				c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), p)))
			}
			return next(c)
		}
	}
}
