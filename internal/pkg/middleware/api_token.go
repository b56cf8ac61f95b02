package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/database"
	"github.com/cinefila/cinefila/internal/pkg/entitlements"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

// APITokenAuthMiddleware authenticates requests carrying the mobile client's
// API token header and loads the full user context for downstream handlers.
func APITokenAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractAPITokenFromHeader(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API token"})
		}

		db := database.GetDB()
		if db == nil {
			log.Print("api token middleware: database unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database unavailable"})
		}

		hash := models.HashAPIToken(token)
		repo := repository.GetGlobalFactory().GetUserRepository()
		user, settings, err := repo.GetByAPITokenHash(hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API token"})
			}
			log.Printf("api token lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API token verification failed"})
		}

		if user.Status != models.STATUS_ACTIVE {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
		}

		plan := effectivePlan(user.ID)

		// Refresh last-used timestamp best-effort.
		settings.TouchAPITokenUsage()
		if err := db.Model(&models.UserSettings{}).
			Where("id = ?", settings.ID).
			Updates(map[string]any{"api_token_last_used": settings.APITokenLastUsed}).Error; err != nil {
			log.Printf("failed to update api token usage timestamp for user %d: %v", user.ID, err)
		}

		userCtx := usercontext.UserContext{
			UserID:          user.ID,
			Username:        user.Name,
			IsLoggedIn:      true,
			Plan:            string(plan),
			ActiveProfileID: settings.ActiveProfileID,
		}
		c.Locals(usercontext.ContextKey, userCtx)
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyUsername, user.Name)

		return c.Next()
	}
}

// effectivePlan resolves the user's entitling plan. An expired or canceled
// subscription yields the free tier rather than an error.
func effectivePlan(userID uint) entitlements.Plan {
	sub, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByUserID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("plan lookup failed for user %d: %v", userID, err)
		}
		return entitlements.PlanNone
	}
	if !sub.IsActive() {
		return entitlements.PlanNone
	}
	return entitlements.Normalize(sub.Plan)
}

func extractAPITokenFromHeader(c *fiber.Ctx) string {
	token := strings.TrimSpace(c.Get("X-API-Token"))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
