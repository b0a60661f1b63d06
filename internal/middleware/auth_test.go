package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendafresca/backend/internal/apperr"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, userID uint, role string) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, authorization string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	m := NewAuthMiddleware(testSecret)
	next := func(c echo.Context) error { return nil }
	return c, m.Authenticate()(next)(c)
}

func TestAuthenticate(t *testing.T) {
	t.Run("valid token sets identity", func(t *testing.T) {
		c, err := runAuth(t, "Bearer "+mintToken(t, testSecret, 42, "customer"))
		require.NoError(t, err)
		assert.EqualValues(t, 42, UserID(c))
		assert.Equal(t, "customer", Role(c))
		assert.False(t, IsAdmin(c))
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := runAuth(t, "")
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := runAuth(t, "Basic dXNlcjpwYXNz")
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		_, err := runAuth(t, "Bearer "+mintToken(t, "other-secret", 42, "customer"))
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = runAuth(t, "Bearer "+signed)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(testSecret)
	next := func(c echo.Context) error { return nil }

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/1/capture", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set(ContextRole, RoleAdmin)
		require.NoError(t, m.RequireAdmin()(next)(c))
	})

	t.Run("customer is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/1/capture", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set(ContextRole, "customer")
		err := m.RequireAdmin()(next)(c)
		assert.True(t, apperr.IsKind(err, apperr.Authorization))
	})
}
