package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It assumes JWTAuth
// already ran and stored the role claim on the context.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session"})
			}
			if !allowed[sess.Role] {
				msg := "Access denied"
				if len(roles) == 1 && roles[0] == model.RoleAdmin {
					msg = "Access denied. Admin only."
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": msg, "code": "Forbidden"})
			}
			return next(c)
		}
	}
}
