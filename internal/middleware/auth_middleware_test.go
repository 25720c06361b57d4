package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gluten-scan/pkg/jwt"
)

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(RequireAuth())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"email":   c.Locals("user_email"),
		})
	})
	return app
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	app := newAuthApp()
	userID := uuid.New()

	token, err := jwt.GenerateToken(userID, "scanner@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), userID.String())
	assert.Contains(t, string(body), "scanner@example.com")
}

func TestRequireAuthMissingHeader(t *testing.T) {
	app := newAuthApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Contains(t, string(body), jwt.ErrMissingToken.Error())
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	app := newAuthApp()

	cases := []struct {
		name   string
		header string
	}{
		{"garbage token", "Bearer not-a-token"},
		{"wrong scheme", "Basic abc123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			req.Header.Set("Authorization", tc.header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, 401, resp.StatusCode)
		})
	}
}
