package middleware

import (
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/api/internal/auth"
)

func whoAmI(c *fiber.Ctx) error {
	return c.SendString(GetUserID(c) + "|" + GetUserEmail(c))
}

func TestAuthenticate(t *testing.T) {
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware("secret").Authenticate(), whoAmI)

	token, err := auth.IssueToken("secret", "user-1", "a@example.com", time.Hour)
	require.NoError(t, err)
	forged, err := auth.IssueToken("other", "user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"forged token", "Bearer " + forged, fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "user-1|a@example.com", string(body))
			}
		})
	}
}

func TestGatewayAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/me", GatewayAuthMiddleware(), whoAmI)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-User-Id", "gw-user")
	req.Header.Set("X-User-Email", "gw@example.com")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "gw-user|gw@example.com", string(body))
}

func TestScrapeLimit(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { rdb.Close() })

	user := "limit-" + uuid.New().String()
	app := fiber.New()
	app.Post("/scrape",
		func(c *fiber.Ctx) error {
			c.Locals("userId", user)
			return c.Next()
		},
		NewRateLimiter(rdb).ScrapeLimit(2),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) },
	)

	for i := 1; i <= 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/scrape", nil))
		require.NoError(t, err)
		if i <= 2 {
			assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
			assert.Equal(t, fmt.Sprintf("%d", 2-i), resp.Header.Get("X-RateLimit-Remaining"))
		} else {
			assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
	}
}
