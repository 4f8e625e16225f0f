package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"crelo/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "http://localhost:5173"

func corsApp(origins string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: origins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/api/projects", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/projects/:id/pledges", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	return app
}

func sendFrom(t *testing.T, app *fiber.App, method, path, origin string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		allowed     string
		origin      string
		wantOrigin  string
		credentials string
	}{
		{"configured origin", "https://crelo.example", "https://crelo.example", "https://crelo.example", "true"},
		{"unknown origin", "https://crelo.example", "https://evil.example", "", ""},
		{"default dev origins", "", webOrigin, webOrigin, "true"},
		{"wildcard never sends credentials", "*", "https://anywhere.example", "*", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := sendFrom(t, corsApp(tt.allowed), http.MethodGet, "/api/projects", tt.origin)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
			assert.Equal(t, tt.credentials, resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
		})
	}
}

func TestCORS_ThrottledResponseKeepsHeaders(t *testing.T) {
	app := corsApp(webOrigin)

	for i := 0; i < 100; i++ {
		resp := sendFrom(t, app, http.MethodGet, "/api/projects", webOrigin)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp := sendFrom(t, app, http.MethodGet, "/api/projects", webOrigin)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCORS_PledgePreflightSkipsLimiter(t *testing.T) {
	app := corsApp(webOrigin)

	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusCreated, sendFrom(t, app, http.MethodPost, "/api/projects/1/pledges", webOrigin).StatusCode)
	}
	require.Equal(t, fiber.StatusTooManyRequests,
		sendFrom(t, app, http.MethodPost, "/api/projects/1/pledges", webOrigin).StatusCode)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects/1/pledges", nil)
	req.Header.Set("Origin", webOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "Authorization")
}
