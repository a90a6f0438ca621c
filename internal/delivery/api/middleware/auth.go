package middleware

import (
	"log/slog"
	"slices"

	deliverycontext "atrium/internal/delivery/context"
	"atrium/internal/domain/entity"
	domainerrors "atrium/internal/domain/errors"
	"atrium/internal/domain/service"
	"atrium/internal/infra/auth"
	logs "atrium/internal/infra/log"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthMiddleware authenticates bearer access tokens and enforces roles.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, logger: logger}
}

// Authenticate validates the access token in the Authorization header and stores its claims.
// Every failure yields the same 401 so callers cannot tell a missing header from a forged token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := auth.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return m.reject(c, "bearer")
		}

		claims, err := m.tokenSvc.ValidateAccess(token)
		if err != nil {
			return m.reject(c, "token")
		}

		deliverycontext.SetClaims(c, claims)

		return next(c)
	}
}

// RequireRole allows the request when the authenticated role is one of roles.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := deliverycontext.GetRole(c)
			if !ok {
				return m.reject(c, "claims")
			}

			if !slices.Contains(roles, role) {
				return errors.Wrapf(domainerrors.ErrForbidden, "role %q", role)
			}

			return next(c)
		}
	}
}

func (m *AuthMiddleware) reject(c echo.Context, stage string) error {
	ctx := c.Request().Context()
	logs.FromContext(ctx, m.logger).DebugContext(ctx, "Request not authenticated",
		slog.String("stage", stage),
		slog.String("path", c.Request().URL.Path),
	)

	return errors.WithStack(domainerrors.ErrUnauthorized)
}
