package middleware

import (
	"net/http"
	"slices"

	"servimarket/internal/entity"

	"github.com/labstack/echo/v4"
)

// RequireRole lets the request through when the authenticated actor holds
// one of roles. It must run after RequireAuth.
func RequireRole(roles ...entity.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := ActorFromContext(c)
			if actor == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !slices.Contains(roles, actor.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
