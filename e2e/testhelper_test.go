package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/leadscout/api/internal/auth"
	"github.com/leadscout/api/internal/generator"
	"github.com/leadscout/api/internal/handler"
	"github.com/leadscout/api/internal/middleware"
	"github.com/leadscout/api/internal/service"
	"github.com/leadscout/api/internal/store"
	"github.com/leadscout/api/internal/worker"
)

const (
	testJWTSecret = "test-secret-for-e2e"
	testUserID    = "test-user-123"
)

// testApp holds all components needed for testing
type testApp struct {
	app   *fiber.App
	redis *redis.Client
}

// setupApp creates a Fiber app wired like cmd/server against a local redis
// (DB 15), with the asynq worker running in-process.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	redisClient := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { redisClient.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: addr, DB: 15}
	asynqClient := asynq.NewClient(redisOpt)
	t.Cleanup(func() { asynqClient.Close() })
	inspector := asynq.NewInspector(redisOpt)
	t.Cleanup(func() { inspector.Close() })

	jobStore := store.NewRedisStore(redisClient, time.Hour)
	scrapeService := service.NewScrapeService(jobStore, generator.NewDefault(),
		service.WithQueue(asynqClient, inspector),
	)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{service.QueueScrape: 1},
		LogLevel:    asynq.WarnLevel,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeScrape, worker.NewScrapeWorker(scrapeService).ProcessTask)
	if err := srv.Start(mux); err != nil {
		t.Fatalf("failed to start worker server: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	validate := validator.New()
	scrapeHandler := handler.NewScrapeHandler(scrapeService, validate)
	healthHandler := handler.NewHealthHandler("redis", redisClient, scrapeService)
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New()
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api", authMiddleware.Authenticate())

	// Use very high rate limits so tests don't get blocked
	scrape := api.Group("/scrape")
	scrape.Post("/start", rateLimiter.ScrapeLimit(10000), scrapeHandler.Start)
	scrape.Post("/enqueue", rateLimiter.ScrapeLimit(10000), scrapeHandler.Enqueue)
	scrape.Get("/jobs/:jobId", scrapeHandler.Job)

	return &testApp{app: app, redis: redisClient}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueToken(testJWTSecret, testUserID, "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, b)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
