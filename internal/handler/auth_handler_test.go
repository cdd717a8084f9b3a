package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/api/internal/auth"
)

func TestVerify(t *testing.T) {
	app := fiber.New()
	app.Get("/auth/verify", NewAuthHandler("secret").Verify)

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/verify", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := auth.IssueToken("secret", "user-9", "u9@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-9", resp.Header.Get("X-User-Id"))
	assert.Equal(t, "u9@example.com", resp.Header.Get("X-User-Email"))
}
