package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/models"
	"github.com/terraincognita07/fertility/internal/services"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func validationError(c *fiber.Ctx, fields []fieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "invalid payload",
		"fields": fields,
	})
}

func okResponse(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// serviceError maps runtime errors onto HTTP replies. Unexpected errors are
// logged and reported as failures of action.
func serviceError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return apiError(c, fiber.StatusNotFound, "profile not found")
	case errors.Is(err, services.ErrProfileIDRequired):
		return apiError(c, fiber.StatusBadRequest, "profile_id is required")
	case errors.Is(err, services.ErrCycleNotFound):
		return apiError(c, fiber.StatusNotFound, "cycle not found")
	case errors.Is(err, services.ErrNoCyclesLogged):
		return apiError(c, fiber.StatusConflict, "no cycles logged")
	case errors.Is(err, services.ErrInvalidCycleRange):
		return apiError(c, fiber.StatusBadRequest, "end must not be before start")
	case errors.Is(err, services.ErrInvalidPregnancyTest):
		return apiError(c, fiber.StatusBadRequest, "invalid pregnancy test result")
	case errors.Is(err, services.ErrCalendarFromDateInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid from date")
	case errors.Is(err, services.ErrCalendarToDateInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid to date")
	case errors.Is(err, services.ErrCalendarRangeInvalid):
		return apiError(c, fiber.StatusBadRequest, "invalid range")
	case errors.Is(err, services.ErrInvalidProfileName),
		errors.Is(err, services.ErrInvalidLutealDays),
		errors.Is(err, services.ErrInvalidRecentWindow),
		errors.Is(err, services.ErrInvalidClockTime),
		errors.Is(err, services.ErrInvalidServiceName),
		errors.Is(err, services.ErrInvalidEntityID):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrSnapshotFieldMissing), errors.Is(err, models.ErrSnapshotFieldInvalid):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	default:
		log.Printf("api: %s: %v", action, err)
		return apiError(c, fiber.StatusInternalServerError, "failed to "+action)
	}
}

func (handler *Handler) profileFromParam(c *fiber.Ctx) (*services.ProfileRuntime, error) {
	return handler.registry.Get(c.Params("id"))
}
