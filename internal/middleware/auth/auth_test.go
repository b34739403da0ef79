package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test_secret")

func newContext(token string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/carrito", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireLoginMissingHeader(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	c, _ := newContext("")

	err := m.RequireLogin(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginMalformedToken(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	c, _ := newContext("not-a-jwt")

	err := m.RequireLogin(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginWrongSecret(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	token, err := SignToken(1, "ana@example.com", "Ana", "user", []byte("other_secret"), time.Hour)
	require.NoError(t, err)

	c, _ := newContext(token)
	handlerErr := m.RequireLogin(okHandler)(c)
	he, ok := handlerErr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginExpiredToken(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	token, err := SignToken(1, "ana@example.com", "Ana", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	c, _ := newContext(token)
	handlerErr := m.RequireLogin(okHandler)(c)
	he, ok := handlerErr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginAttachesClaims(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	token, err := SignToken(7, "ana@example.com", "Ana", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	c, rec := newContext(token)
	handler := func(c echo.Context) error {
		claims, err := FromContext(c)
		require.NoError(t, err)
		require.Equal(t, uint(7), claims.UserID)
		require.Equal(t, "ana@example.com", claims.Email)
		require.Equal(t, "Ana", claims.Name)
		require.Equal(t, "admin", claims.Role)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, m.RequireLogin(handler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}

	userToken, err := SignToken(1, "ana@example.com", "Ana", "user", testSecret, time.Hour)
	require.NoError(t, err)
	c, _ := newContext(userToken)
	handlerErr := m.RequireLogin(m.AdminOnly(okHandler))(c)
	he, ok := handlerErr.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	adminToken, err := SignToken(2, "root@example.com", "Root", "admin", testSecret, time.Hour)
	require.NoError(t, err)
	c, rec := newContext(adminToken)
	require.NoError(t, m.RequireLogin(m.AdminOnly(okHandler))(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
