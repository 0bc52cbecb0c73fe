package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	app := fiber.New()
	app.Get("/session", IsAuthenticatedHeader(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"subject": c.Locals("userID")})
	})
	app.Get("/guest", IsVerifiedGuest(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"subject": c.Locals("shareToken")})
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestTokenAudiencesAreDisjoint(t *testing.T) {
	app := authApp(t)

	session, err := GenerateJWT("user-1", "tenant_a")
	require.NoError(t, err)
	guest, err := GenerateGuestJWT("sharetoken", "tenant_a")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(t, app, "/session", session))
	assert.Equal(t, http.StatusOK, get(t, app, "/guest", guest))

	// Crossing the populations never works: a guest token opens no session
	// surface, and a session token unlocks no share link.
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/session", guest))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/guest", session))
}

func TestMissingOrMangledBearerRejected(t *testing.T) {
	app := authApp(t)

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/session", ""))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/session", "not-a-jwt"))
}
