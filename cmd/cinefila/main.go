package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cinefila/cinefila/app/controllers"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/database"
	"github.com/cinefila/cinefila/internal/pkg/env"
	"github.com/cinefila/cinefila/internal/pkg/jobqueue"
	"github.com/cinefila/cinefila/internal/pkg/router"
)

func main() {
	app := NewApplication()

	manager := jobqueue.GetManager()
	manager.Start()
	defer manager.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:      "CineFila",
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if basePath := findDocsBasePath(); basePath != "" {
		openAPICfg := swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}
		app.Use(swagger.New(openAPICfg))
	}

	// ROUTER
	router.SetAccountExporter(jobqueue.GetManager())
	router.InstallRouter(app)

	return app
}

func findDocsBasePath() string {
	basePaths := []string{
		"./",
		"../../",
		"../../../",
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); !os.IsNotExist(err) {
			return path
		}
	}
	return ""
}
