// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"nadin-revendedoras/middleware"
	"nadin-revendedoras/models"
	"nadin-revendedoras/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(app *fiber.App, gamification *services.GamificationService, ranking *services.RankingService) {
	app.Get("/ranking", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		entries, err := ranking.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		if entries == nil {
			entries = []services.LeaderboardEntry{}
		}
		return c.JSON(entries)
	})

	// 🔐 the gateway forwards /api/v1/revendedoras/user/progress -> /user/progress
	securedGroup := app.Group("/user", middleware.UserContextMiddleware())

	securedGroup.Get("/progress", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		summary, err := ranking.UserSummary(c.UserContext(), gamification, userID)
		if err != nil {
			return respondError(c, err)
		}

		lvl := summary.UserLevel
		return c.JSON(fiber.Map{
			"id":               lvl.ID,
			"level":            lvl.CurrentLevel,
			"xp":               lvl.CurrentXP,
			"total_sales":      lvl.TotalSales,
			"total_points":     summary.TotalPoints,
			"badges":           summary.Badges,
			"next_level":       summary.NextLevel,
			"sales_to_next":    summary.SalesToNext,
			"progress_to_next": summary.ProgressToNext,
			"last_level_up_at": lvl.LastLevelUpAt,
		})
	})

	securedGroup.Get("/progress/badges", func(c *fiber.Ctx) error {
		userBadges, err := ranking.UserBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}

		response := make([]fiber.Map, 0, len(userBadges))
		for _, ub := range userBadges {
			response = append(response, fiber.Map{
				"id":          ub.ID,
				"badge_id":    ub.BadgeID,
				"name":        ub.Badge.Name,
				"description": ub.Badge.Description,
				"icon":        ub.Badge.Icon,
				"kind":        ub.Badge.Kind,
				"brand":       ub.Badge.Brand,
				"unlocked_at": ub.UnlockedAt,
			})
		}
		return c.JSON(response)
	})

	securedGroup.Get("/progress/points", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))

		total, err := ranking.TotalPoints(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		history, err := ranking.PointsHistory(c.UserContext(), userID, page, size)
		if err != nil {
			return respondError(c, err)
		}
		if history == nil {
			history = []models.Point{}
		}
		return c.JSON(fiber.Map{
			"total":   total,
			"history": history,
		})
	})
}
