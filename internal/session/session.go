package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "session_id"
	TTL        = 30 * 24 * time.Hour

	contextKey = "session_id_minted"
)

// Ensure returns the visitor's session key, minting one on first use. The
// cookie is set at most once per visitor; calling Ensure again within the
// same request or on later requests returns the same key.
func Ensure(c echo.Context) string {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	if id, ok := c.Get(contextKey).(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	c.Set(contextKey, id)
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(TTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Current returns the session key without minting one.
func Current(c echo.Context) (string, bool) {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
