package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// principal returns the identity installed by the Authenticate middleware.
// Role-gated routes never reach a handler without one, so a missing
// principal here means the route was wired without its gate.
func principal(c echo.Context) (*domain.Principal, error) {
	p, ok := domain.PrincipalFrom(c.Request().Context())
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
