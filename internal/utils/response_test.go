package utils_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/aokijuku/grammar-coach-api/internal/utils"
)

func TestSendError(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusBadRequest, "userId is required")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload utils.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "userId is required", payload.Error)
}

func TestSendErrorDefaultsMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusInternalServerError, "")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload utils.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "server error", payload.Error)
}

func TestSendJSONDefaultsStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return utils.SendJSON(c, 0, map[string]bool{"success": true})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
