package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs one group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// The REST surface carries its own auth middleware per group; the ops
	// router under /api/v1 is installed second and reuses it.
	setup(app, NewRestRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
