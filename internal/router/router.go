package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aokijuku/grammar-coach-api/internal/config"
	"github.com/aokijuku/grammar-coach-api/internal/handler"
	"github.com/aokijuku/grammar-coach-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ReviewHandler  *handler.ReviewHandler
	HistoryHandler *handler.HistoryHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ReviewHandler != nil {
		deps.ReviewHandler.Register(api.Group("/reviews"))
	}

	if deps.HistoryHandler != nil {
		deps.HistoryHandler.Register(api.Group("/history"))
	}
}
