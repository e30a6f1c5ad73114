package middleware

// identity.go holds the helpers that turn the values JWTAuth stored on the
// context back into a caller identity.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// SessionFrom returns the authenticated caller.  ok is false on routes that
// are not behind JWTAuth.
func SessionFrom(c echo.Context) (model.Session, bool) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return model.Session{}, false
	}
	role, _ := c.Get("role").(string)
	return model.Session{UserID: uid, Role: model.Role(role)}, true
}

// userID is the caller id as used in rate limit keys, "anon" when nobody
// is signed in.
func userID(c echo.Context) string {
	if sess, ok := SessionFrom(c); ok {
		return strconv.FormatUint(sess.UserID, 10)
	}
	return "anon"
}
