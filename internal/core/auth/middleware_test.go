package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, userID, role string, ttl time.Duration) string {
	tok, err := Sign(testSecret, userID, role, ttl)
	require.NoError(t, err)
	return tok
}

func newApp(m *Middleware) *fiber.App {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		p, ok := FromContext(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(p.Role + ":" + p.UserID)
	}
	app.Get("/me", m.RequireAuth(), whoami)
	app.Get("/admin", m.RequireAdmin(), whoami)
	app.Get("/open", m.OptionalAuth(), whoami)
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, string) {
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestRequireAuth(t *testing.T) {
	app := newApp(NewMiddleware(testSecret))

	status, _ := call(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := call(t, app, "/me", signed(t, "u1", RoleCustomer, time.Hour))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "customer:u1", body)
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	app := newApp(NewMiddleware(testSecret))

	expired := signed(t, "u1", RoleCustomer, -time.Minute)
	status, _ := call(t, app, "/me", expired)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	wrongKey, err := Sign("other-secret", "u1", RoleCustomer, time.Hour)
	require.NoError(t, err)
	status, _ = call(t, app, "/me", wrongKey)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	noUser := signed(t, "", RoleCustomer, time.Hour)
	status, _ = call(t, app, "/me", noUser)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	status, _ = call(t, app, "/me", none)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireAdmin(t *testing.T) {
	app := newApp(NewMiddleware(testSecret))

	status, _ := call(t, app, "/admin", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "/admin", signed(t, "u1", RoleCustomer, time.Hour))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := call(t, app, "/admin", signed(t, "a1", RoleAdmin, time.Hour))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin:a1", body)
}

func TestOptionalAuth(t *testing.T) {
	app := newApp(NewMiddleware(testSecret))

	_, body := call(t, app, "/open", "")
	assert.Equal(t, "anonymous", body)

	_, body = call(t, app, "/open", "garbage")
	assert.Equal(t, "anonymous", body)

	_, body = call(t, app, "/open", signed(t, "u9", RoleCustomer, time.Hour))
	assert.Equal(t, "customer:u9", body)

	_, body = call(t, app, "/open?access_token="+signed(t, "u7", RoleAdmin, time.Hour), "")
	assert.Equal(t, "admin:u7", body)
}

func TestParse_UnknownRoleIsCustomer(t *testing.T) {
	m := NewMiddleware(testSecret)
	p, err := m.Parse(signed(t, "u1", "superuser", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, p.Role)
	assert.False(t, p.IsAdmin())
}
