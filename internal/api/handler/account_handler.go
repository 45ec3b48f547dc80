package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// AccountHandler serves the caller's own identity and the public home page.
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// Me handles GET /api/me.
//
// @Summary      Current principal
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		Username:  p.Username,
		Role:      p.Role,
		Authority: p.Authority,
	})
}

// Home handles GET / with basic service information.
//
// @Summary      Service information
// @Tags         account
// @Produce      json
// @Success      200  {object}  homeResponse
// @Router       / [get]
func (h *AccountHandler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, homeResponse{
		Message: "auth service",
		Status:  "running",
		Endpoints: map[string]string{
			"register": "/api/auth/register",
			"login":    "/api/auth/login",
			"me":       "/api/me",
			"users":    "/api/users",
			"docs":     "/swagger/index.html",
		},
		Roles: domain.Roles(),
	})
}
