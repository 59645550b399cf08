package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalsKey).(string))
	})

	t.Run("generated", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)

		id := resp.Header.Get(HeaderName)
		_, err = uuid.Parse(id)
		assert.NoError(t, err)
	})

	t.Run("propagated", func(t *testing.T) {
		want := uuid.NewString()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderName, want)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Header.Get(HeaderName))
	})

	t.Run("invalid header replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderName, "not-a-uuid")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, "not-a-uuid", resp.Header.Get(HeaderName))
	})
}
