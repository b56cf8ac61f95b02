package apiv1

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/cinefila/cinefila/app/controllers"
	"github.com/cinefila/cinefila/internal/pkg/metrics/counter"
	"github.com/cinefila/cinefila/internal/pkg/middleware"
	"github.com/cinefila/cinefila/internal/pkg/statistics"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

// Pong is the ping response body
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer exposes the ops endpoints under /api/v1
type APIServer struct {
	exporter controllers.AccountExporter
}

// NewAPIServer creates a new API server instance
func NewAPIServer(exporter controllers.AccountExporter) *APIServer {
	return &APIServer{exporter: exporter}
}

// RegisterHandlers attaches the v1 routes to the given group.
func RegisterHandlers(v1 fiber.Router, s *APIServer) {
	v1.Get("/ping", s.GetPing)
	v1.Get("/stats", s.GetStats)
	v1.Post("/export", middleware.APITokenAuthMiddleware(), s.PostExport)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetStats returns the cached service totals.
func (s *APIServer) GetStats(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()
	data := statistics.GetStatistics()

	top, err := counter.TopFavorited(10)
	if err != nil {
		log.Printf("top favorited lookup failed: %v", err)
		top = nil
	}

	return c.JSON(fiber.Map{
		"totalUsers":     data.TotalUsers,
		"totalProfiles":  data.TotalProfiles,
		"totalFavorites": data.TotalFavorites,
		"newUsersToday":  data.TodayUsers,
		"topFavorited":   top,
	})
}

// PostExport enqueues an account-data snapshot for the authenticated user.
func (s *APIServer) PostExport(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}
	if s.exporter == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "unavailable", "message": "Export is not configured"})
	}
	if err := s.exporter.EnqueueAccountExport(userID); err != nil {
		log.Printf("export enqueue for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to enqueue export"})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}
