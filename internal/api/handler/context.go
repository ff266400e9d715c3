package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expresslane/courier-booking/internal/api/middleware"
	"github.com/expresslane/courier-booking/internal/core/domain"
)

// ctxClaims extracts the identity injected by the Auth middleware. A client
// token without a client id cannot be scoped to a branch and is rejected
// with 401 before any service call.
func ctxClaims(c echo.Context) (role, clientID string, err error) {
	role, _ = c.Get(middleware.ContextRole).(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	clientID, _ = c.Get(middleware.ContextClientID).(string)
	if role == domain.RoleClient && clientID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing client identity")
	}

	return role, clientID, nil
}
