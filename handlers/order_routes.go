// handlers/order_routes.go
package handlers

import (
	"nadin-revendedoras/middleware"
	"nadin-revendedoras/models"
	"nadin-revendedoras/services"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(app *fiber.App, orders *services.OrderService) {
	auth := middleware.UserContextMiddleware()

	app.Post("/orders", auth, func(c *fiber.Ctx) error {
		var req services.CreateOrderRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON: "+err.Error())
		}
		order, err := orders.CreateOrder(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	})

	app.Get("/orders", auth, func(c *fiber.Ctx) error {
		var state *models.OrderState
		if s := c.Query("state"); s != "" {
			st := models.OrderState(s)
			state = &st
		}
		list, err := orders.ListOrders(c.UserContext(), middleware.UserID(c), state)
		if err != nil {
			return respondError(c, err)
		}
		if list == nil {
			list = []models.Order{}
		}
		return c.JSON(list)
	})

	app.Get("/orders/:id", auth, func(c *fiber.Ctx) error {
		order, err := orders.GetOrder(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(order)
	})

	app.Patch("/orders/:id/status", auth, func(c *fiber.Ctx) error {
		var upd services.StatusUpdate
		if err := c.BodyParser(&upd); err != nil {
			return badRequest(c, "invalid JSON: "+err.Error())
		}
		if upd.State == nil && upd.PaidByClient == nil {
			return badRequest(c, "state or paid_by_client is required")
		}
		result, err := orders.UpdateOrderStatus(c.UserContext(), middleware.UserID(c), c.Params("id"), upd)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	})

	app.Post("/consolidations", auth, func(c *fiber.Ctx) error {
		consolidation, err := orders.Consolidate(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(consolidation)
	})

	app.Get("/reseller", auth, func(c *fiber.Ctx) error {
		reseller, err := orders.EnsureReseller(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reseller)
	})

	app.Patch("/reseller/markup", auth, func(c *fiber.Ctx) error {
		var req struct {
			MarkupPercent *float64 `json:"markup_percent"`
		}
		if err := c.BodyParser(&req); err != nil || req.MarkupPercent == nil {
			return badRequest(c, "markup_percent is required")
		}
		if *req.MarkupPercent < 0 {
			return badRequest(c, "markup_percent must not be negative")
		}
		reseller, err := orders.UpdateMarkup(c.UserContext(), middleware.UserID(c), *req.MarkupPercent)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(reseller)
	})
}
