package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/leadscout/api/internal/service"
)

type HealthHandler struct {
	storeDriver string
	redis       *redis.Client
	scrape      *service.ScrapeService
}

// NewHealthHandler reports on the given collaborators; redisClient may be nil
func NewHealthHandler(storeDriver string, redisClient *redis.Client, scrape *service.ScrapeService) *HealthHandler {
	return &HealthHandler{
		storeDriver: storeDriver,
		redis:       redisClient,
		scrape:      scrape,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	redisOK := false
	if h.redis != nil {
		redisOK = h.redis.Ping(c.UserContext()).Err() == nil
	}

	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"services": fiber.Map{
			"store":   h.storeDriver,
			"redis":   redisOK,
			"archive": h.scrape.ArchiveEnabled(),
			"queue":   h.scrape.QueueEnabled(),
		},
	})
}
