package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/utils"
)

const testSecret = "unit-test-secret"

func runRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string, setup func(echo.Context)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec, _ := runRequest(t, JWTAuth(testSecret), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMalformedToken(t *testing.T) {
	rec, _ := runRequest(t, JWTAuth(testSecret), "Bearer not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 9, "user", 10)
	require.NoError(t, err)

	rec, _ := runRequest(t, JWTAuth(testSecret), "Bearer "+at.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidTokenInjectsClaims(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 9, "admin", 10)
	require.NoError(t, err)

	rec, c := runRequest(t, JWTAuth(testSecret), "Bearer "+at.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	// numeric JSON claims decode as float64
	assert.Equal(t, float64(9), c.Get("user_id"))
	assert.Equal(t, "admin", c.Get("role"))
}

func TestRequireRoleAllows(t *testing.T) {
	rec, _ := runRequest(t, RequireRole("admin"), "", func(c echo.Context) {
		c.Set("role", "admin")
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsOtherRole(t *testing.T) {
	rec, _ := runRequest(t, RequireRole("admin"), "", func(c echo.Context) {
		c.Set("role", "user")
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleForbidsMissingRole(t *testing.T) {
	rec, _ := runRequest(t, RequireRole("admin", "user"), "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
