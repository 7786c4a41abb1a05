package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user has one of the
// specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := UserFromContext(c.Request().Context())
			if u == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, required := range roles {
				if u.Role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"required role: "+strings.Join(roles, " or "))
		}
	}
}
