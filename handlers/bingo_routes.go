// handlers/bingo_routes.go
package handlers

import (
	"bingo-service/middleware"
	"bingo-service/services"

	"github.com/gofiber/fiber/v2"
)

type tileRequest struct {
	Position *int `json:"position" form:"position" validate:"required,min=0,max=15"`
}

type completeRequest struct {
	Position    *int   `json:"position" form:"position" validate:"required,min=0,max=15"`
	Description string `json:"description" form:"description" validate:"max=1000"`
	Consent     bool   `json:"consent" form:"consent"`
}

func SetupBingoRoutes(app *fiber.App, bingoService *services.BingoService, gridService *services.GridService) {
	// 🔓 Public: the active board, with the caller's progress when the gateway forwards an identity
	app.Get("/bingo/grid", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		view, err := gridService.BoardView(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(view)
	})

	// 🔐 Secured routes: require user context
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/bingo/tiles/start", func(c *fiber.Ctx) error {
		var req tileRequest
		if handled, err := parseAndValidate(c, &req); handled {
			return err
		}

		rec, err := bingoService.StartTile(c.UserContext(), middleware.UserID(c), *req.Position)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(fiber.Map{
			"position":   rec.Position,
			"status":     rec.Status(),
			"started_at": rec.StartedAt,
		})
	})

	secured.Patch("/bingo/tiles/complete", func(c *fiber.Ctx) error {
		var req completeRequest
		if handled, err := parseAndValidate(c, &req); handled {
			return err
		}

		in := services.CompleteInput{
			Position:    *req.Position,
			Description: req.Description,
			Consent:     req.Consent,
		}

		// Optional image evidence (multipart only)
		if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
			f, err := fh.Open()
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable image", "cause": err.Error()})
			}
			defer f.Close()
			in.Image = &services.EvidenceUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			}
		}

		result, err := bingoService.CompleteTile(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(result)
	})
}
