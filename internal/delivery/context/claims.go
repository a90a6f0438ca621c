package context

import (
	"atrium/internal/domain/entity"
	"atrium/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// KeyClaims is the key under which the authenticated access claims are stored.
const KeyClaims ContextKey = "claims"

// SetClaims stores validated access claims on the request.
func SetClaims(c echo.Context, claims *service.AccessClaims) {
	c.Set(string(KeyClaims), claims)
}

// GetClaims returns the access claims set by the authentication middleware.
func GetClaims(c echo.Context) (*service.AccessClaims, bool) {
	claims, ok := c.Get(string(KeyClaims)).(*service.AccessClaims)

	return claims, ok && claims != nil
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return uuid.Nil, false
	}

	return claims.UserID, true
}

// GetRole returns the role carried by the access token.
func GetRole(c echo.Context) (entity.Role, bool) {
	claims, ok := GetClaims(c)
	if !ok {
		return "", false
	}

	return entity.Role(claims.Role), true
}
