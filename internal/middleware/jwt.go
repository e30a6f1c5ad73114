package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// read the caller through SessionFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(secret),
		TokenLookup: "header:Authorization:Bearer ",
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(withIdentity(next))
	}
}

// withIdentity copies the verified claims onto the context as "user_id"
// (uint64) and "role" (string).
func withIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
		}
		uid, role, err := utils.ClaimsIdentity(claims)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
		}
		c.Set("user_id", uid)
		c.Set("role", role)
		return next(c)
	}
}
