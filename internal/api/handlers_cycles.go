package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/models"
)

type cyclePayload struct {
	Start string  `json:"start" validate:"required,datetime=2006-01-02"`
	End   *string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

// cyclePatchPayload keeps end and notes tri-state: an absent key leaves the
// field alone, null clears it.
type cyclePatchPayload struct {
	Start *string                 `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   models.Optional[string] `json:"end"`
	Notes models.Optional[string] `json:"notes"`
}

func (handler *Handler) ListCycles(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "fetch cycles")
	}
	return c.JSON(cycleViews(runtime.Cycles()))
}

func (handler *Handler) CreateCycle(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "add cycle")
	}

	payload := cyclePayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}

	start, err := parseDayParam(payload.Start)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid start date")
	}
	endDay, err := parseOptionalEnd(payload.End)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid end date")
	}

	record, err := runtime.AddPeriod(start, endDay, trimmedOrNil(payload.Notes))
	if err != nil {
		return serviceError(c, err, "add cycle")
	}
	return c.Status(fiber.StatusCreated).JSON(cycleViewOf(record))
}

func (handler *Handler) EditCycle(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "edit cycle")
	}

	payload := cyclePatchPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}

	patch := models.CyclePatch{}
	if payload.Start != nil {
		start, err := parseDayParam(*payload.Start)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid start date")
		}
		patch.Start = &start
	}
	if payload.End.Present() {
		if raw, ok := payload.End.Get(); ok {
			end, err := parseDayParam(raw)
			if err != nil {
				return apiError(c, fiber.StatusBadRequest, "invalid end date")
			}
			patch.End = models.Set(end)
		} else {
			patch.End = models.Clear[time.Time]()
		}
	}
	if payload.Notes.Present() {
		if notes := trimmedOrNil(payload.Notes.Pointer()); notes != nil {
			patch.Notes = models.Set(*notes)
		} else {
			patch.Notes = models.Clear[string]()
		}
	}

	if err := runtime.EditCycle(c.Params("cycleID"), patch); err != nil {
		return serviceError(c, err, "edit cycle")
	}
	return okResponse(c)
}

func (handler *Handler) DeleteCycle(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "delete cycle")
	}
	if err := runtime.DeleteCycle(c.Params("cycleID")); err != nil {
		return serviceError(c, err, "delete cycle")
	}
	return okResponse(c)
}

func parseOptionalEnd(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	end, err := parseDayParam(*raw)
	if err != nil {
		return nil, err
	}
	return &end, nil
}
