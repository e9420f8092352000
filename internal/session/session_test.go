package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestEnsureMintsOnce(t *testing.T) {
	c, rec := newContext()

	first := Ensure(c)
	require.NotEmpty(t, first)
	require.Equal(t, first, Ensure(c), "a second call in the same request returns the same key")

	var cookies int
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			cookies++
			require.Equal(t, first, ck.Value)
			require.True(t, ck.HttpOnly)
		}
	}
	require.Equal(t, 1, cookies)
}

func TestEnsureKeepsExistingSession(t *testing.T) {
	c, rec := newContext(&http.Cookie{Name: CookieName, Value: "existing"})

	require.Equal(t, "existing", Ensure(c))
	require.Empty(t, rec.Result().Cookies(), "no new cookie for a returning visitor")
}

func TestCurrent(t *testing.T) {
	c, _ := newContext()
	_, ok := Current(c)
	require.False(t, ok)

	c, _ = newContext(&http.Cookie{Name: CookieName, Value: "existing"})
	id, ok := Current(c)
	require.True(t, ok)
	require.Equal(t, "existing", id)
}
