// handlers/response.go
package handlers

import (
	"errors"
	"reflect"
	"strings"

	"bingo-service/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseAndValidate decodes the body (JSON or form) into req and validates it.
// On failure the response is already written and handled is true.
func parseAndValidate(c *fiber.Ctx, req interface{}) (handled bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
			"cause": err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		return true, validationError(c, err)
	}
	return false, nil
}

func validationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	status := fiber.StatusBadRequest
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
		// A present but out-of-range position is a validation failure, not a malformed body
		if fe.Field() == "position" && (fe.Tag() == "min" || fe.Tag() == "max") {
			status = fiber.StatusUnprocessableEntity
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

// errorResponse maps service errors onto HTTP statuses.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, services.ErrInvalidPosition), errors.Is(err, services.ErrInvalidGrid):
		status, msg = fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrEvidenceUnsupported):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrTileAlreadyStarted),
		errors.Is(err, services.ErrActivationConflict),
		errors.Is(err, services.ErrGridSuperseded):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrTileNotStarted),
		errors.Is(err, services.ErrGridNotFound),
		errors.Is(err, services.ErrChallengeNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrNoActiveGrid):
		status, msg = fiber.StatusServiceUnavailable, "No bingo grid found. Please contact support."
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(status).JSON(fiber.Map{"error": msg, "cause": err.Error()})
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}
