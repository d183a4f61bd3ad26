// handlers/sync_routes.go
package handlers

import (
	"errors"

	"nadin-revendedoras/middleware"
	"nadin-revendedoras/services"

	"github.com/gofiber/fiber/v2"
)

// SetupSyncRoutes exposes the on-demand catalog sync for the external cron.
func SetupSyncRoutes(app *fiber.App, syncService *services.CatalogSyncService, cronSecret string) {
	handler := func(c *fiber.Ctx) error {
		result, err := syncService.SyncCatalog(c.UserContext())
		if err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, services.ErrSyncInProgress) {
				status = fiber.StatusConflict
			}
			return c.Status(status).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"count":   result.Count,
			"dropped": result.Dropped,
			"levels":  result.Levels,
			"duration": fiber.Map{
				"ms":      result.Duration.Milliseconds(),
				"seconds": result.Duration.Seconds(),
			},
			"timestamp": result.Timestamp,
		})
	}

	guard := middleware.CronSecretMiddleware(cronSecret)
	app.Post("/catalog/sync", guard, handler)
	app.Get("/catalog/sync", guard, handler)
}
