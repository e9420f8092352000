package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mystor/storefront/internal/service/token"
)

type Middleware struct {
	JWTSecret []byte
}

// RequireAuth resolves the access cookie into user_id/role on the echo
// context. There is no refresh fallback here; clients rotate via /refresh.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ck, err := c.Cookie("accessToken")
		if err != nil || ck.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
		}

		userID, role, err := token.ParseAccess(ck.Value, m.JWTSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		return next(c)
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if role, _ := c.Get("role").(string); role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	})
}

// UserID returns the authenticated user's id set by RequireAuth.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}
