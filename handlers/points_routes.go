// handlers/points_routes.go
package handlers

import (
	"bingo-service/middleware"
	"bingo-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, ledger services.PointsLedger) {
	securedGroup := app.Group("/s/user", middleware.UserContextMiddleware())

	securedGroup.Get("/points", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		prog, err := ledger.Total(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB error fetching points",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"user_id":      userID,
			"total_points": prog.TotalPoints,
		})
	})
}
