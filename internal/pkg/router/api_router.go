package router

import (
	apiv1 "github.com/cinefila/cinefila/internal/api/v1"

	"github.com/gofiber/fiber/v2"

	"github.com/cinefila/cinefila/internal/pkg/constants"
	"github.com/cinefila/cinefila/internal/pkg/ratelimit"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, ratelimit.NewLimiter(60))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(accountExporter)
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
