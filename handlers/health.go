// handlers/health.go
package handlers

import (
	"context"
	"time"

	"nadin-revendedoras/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupHealthRoutes registers /healthz and /metrics.
func SetupHealthRoutes(app *fiber.App, db *gorm.DB, cache *services.CatalogCache) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}

		products, err := cache.Count(ctx)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"status":          "ok",
			"cached_products": products,
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
