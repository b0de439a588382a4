// handlers/admin_routes.go
package handlers

import (
	"time"

	"bingo-service/middleware"
	"bingo-service/services"

	"github.com/gofiber/fiber/v2"
)

type createGridRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	ChallengeIDs []string   `json:"challenge_ids" validate:"required,len=16,dive,uuid"`
	ActivateAt   *time.Time `json:"activate_at"`
}

func SetupAdminRoutes(app *fiber.App, gridService *services.GridService) {
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole(middleware.RoleAdmin))

	adminGroup.Post("/bingo/grids", func(c *fiber.Ctx) error {
		var req createGridRequest
		if handled, err := parseAndValidate(c, &req); handled {
			return err
		}

		grid, err := gridService.CreateGrid(c.UserContext(), services.CreateGridInput{
			Name:         req.Name,
			ChallengeIDs: req.ChallengeIDs,
			ActivateAt:   req.ActivateAt,
		})
		if err != nil {
			return errorResponse(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Bingo grid successfully updated.",
			"grid":    grid,
		})
	})

	adminGroup.Post("/bingo/grids/:id/activate", func(c *fiber.Ctx) error {
		grid, err := gridService.ActivateGrid(c.UserContext(), c.Params("id"))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(grid)
	})
}
