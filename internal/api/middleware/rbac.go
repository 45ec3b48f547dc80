package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RequireRole enforces role-based access control. A request without a
// principal fails authentication (401); a principal whose role is not in
// allowedRoles fails authorization (403).
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := domain.PrincipalFrom(c.Request().Context())
			if !ok {
				return domain.ErrUnauthenticated
			}
			if len(allowedRoles) > 0 && !p.HasRole(allowedRoles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireAuthenticated admits any caller with a principal.
func RequireAuthenticated() echo.MiddlewareFunc {
	return RequireRole()
}
