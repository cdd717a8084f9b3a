package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/leadscout/api/internal/client"
	"github.com/leadscout/api/internal/config"
	"github.com/leadscout/api/internal/generator"
	"github.com/leadscout/api/internal/handler"
	"github.com/leadscout/api/internal/middleware"
	"github.com/leadscout/api/internal/service"
	"github.com/leadscout/api/internal/store"
	ws "github.com/leadscout/api/internal/websocket"
	"github.com/leadscout/api/internal/worker"
	"github.com/leadscout/api/pkg/response"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize job store
	jobStore, pool, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to open %s job store: %v", cfg.Store.Driver, err)
	}
	if pool != nil {
		defer pool.Close()
	}
	log.Printf("Job store: %s", cfg.Store.Driver)

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	opts := []service.Option{service.WithPublisher(hub)}

	// Initialize R2 result archive (optional)
	if cfg.R2.Configured() {
		r2Client, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		} else {
			opts = append(opts, service.WithArchive(r2Client))
		}
	} else {
		log.Println("Info: R2 storage not configured, results are not archived")
	}

	// Initialize Asynq client and inspector (optional)
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Queue.Enabled {
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		inspector := asynq.NewInspector(redisOpt)
		defer inspector.Close()
		opts = append(opts, service.WithQueue(asynqClient, inspector))
	}

	scrapeService := service.NewScrapeService(jobStore, generator.NewDefault(), opts...)

	// Initialize handlers
	validate := validator.New()
	scrapeHandler := handler.NewScrapeHandler(scrapeService, validate)
	healthHandler := handler.NewHealthHandler(cfg.Store.Driver, redisClient, scrapeService)
	authHandler := handler.NewAuthHandler(cfg.JWT.Secret)

	// Initialize middleware
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		log.Println("Info: Gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", healthHandler.Check)

	// ForwardAuth verification endpoint (internal, called by the gateway)
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	scrape := api.Group("/scrape")
	scrape.Post("/start", rateLimiter.ScrapeLimit(cfg.RateLimit.ScrapePerHour), scrapeHandler.Start)
	scrape.Post("/enqueue", rateLimiter.ScrapeLimit(cfg.RateLimit.ScrapePerHour), scrapeHandler.Enqueue)
	scrape.Get("/jobs/:jobId", scrapeHandler.Job)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	if cfg.Queue.Enabled {
		go startWorkerServer(ctx, cfg, redisOpt, scrapeService)
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// openStore builds the configured job store. The pool is non-nil for postgres.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (store.JobStore, *pgxpool.Pool, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return store.NewMemoryStore(), nil, nil
	case config.StoreDriverPostgres:
		pool, err := store.ConnectPostgres(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgresStore(pool), pool, nil
	default:
		return store.NewRedisStore(redisClient, cfg.Store.Retention), nil, nil
	}
}

func startWorkerServer(ctx context.Context, cfg *config.Config, redisOpt asynq.RedisClientOpt, scrapeService *service.ScrapeService) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Queues: map[string]int{
			service.QueueScrape: 1,
		},
		LogLevel: asynqLogLevel,
	})

	scrapeWorker := worker.NewScrapeWorker(scrapeService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeScrape, scrapeWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
		return
	}
	<-ctx.Done()
	srv.Shutdown()
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
