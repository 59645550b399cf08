package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/agent/status", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/swagger/index.html", func(c *fiber.Ctx) error { return c.SendString("docs") })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		path   string
		header string
		value  string
		want   int
	}{
		{"disabled", Config{}, "/agent/status", "", "", 200},
		{"missing key", Config{ApiKey: "secret"}, "/agent/status", "", "", 401},
		{"wrong key", Config{ApiKey: "secret"}, "/agent/status", HeaderName, "nope", 401},
		{"header key", Config{ApiKey: "secret"}, "/agent/status", HeaderName, "secret", 200},
		{"bearer key", Config{ApiKey: "secret"}, "/agent/status", fiber.HeaderAuthorization, "Bearer secret", 200},
		{"skipped prefix", Config{ApiKey: "secret", Skip: []string{"/swagger"}}, "/swagger/index.html", "", "", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := setupApp(tt.cfg).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
