package handler

import (
	"net/http"

	"atrium/internal/delivery/api/response"
	deliverycontext "atrium/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

// AdminPing confirms that the caller passed the role check.
func AdminPing(c echo.Context) error {
	claims, ok := deliverycontext.GetClaims(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"user_id": claims.UserID.String(),
		"role":    claims.Role,
	})
}
