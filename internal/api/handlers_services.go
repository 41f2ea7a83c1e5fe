package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/services"
)

type logPeriodStartPayload struct {
	ProfileID string  `json:"profile_id"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

type logPeriodEndPayload struct {
	ProfileID string  `json:"profile_id"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	CycleID   string  `json:"cycle_id"`
}

type logSexPayload struct {
	ProfileID string  `json:"profile_id"`
	Protected bool    `json:"protected"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

type logPregnancyTestPayload struct {
	ProfileID string `json:"profile_id"`
	Result    string `json:"result" validate:"required,oneof=positive negative inconclusive"`
}

type triggerPayload struct {
	EntityID string `json:"entity_id" validate:"required"`
	State    string `json:"state" validate:"required"`
}

func (handler *Handler) LogPeriodStart(c *fiber.Ctx) error {
	payload := logPeriodStartPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}
	runtime, err := handler.registry.Resolve(payload.ProfileID)
	if err != nil {
		return serviceError(c, err, "log period start")
	}

	day, err := parseOptionalDay(payload.Date, runtime.Now())
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	record, err := runtime.LogPeriodStart(day, trimmedOrNil(payload.Notes))
	if err != nil {
		return serviceError(c, err, "log period start")
	}
	return c.JSON(fiber.Map{"ok": true, "cycle": cycleViewOf(record)})
}

func (handler *Handler) LogPeriodEnd(c *fiber.Ctx) error {
	payload := logPeriodEndPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}
	runtime, err := handler.registry.Resolve(payload.ProfileID)
	if err != nil {
		return serviceError(c, err, "log period end")
	}

	day, err := parseOptionalDay(payload.Date, runtime.Now())
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	if err := runtime.LogPeriodEnd(day, payload.CycleID); err != nil {
		return serviceError(c, err, "log period end")
	}
	return okResponse(c)
}

func (handler *Handler) LogSex(c *fiber.Ctx) error {
	payload := logSexPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}
	runtime, err := handler.registry.Resolve(payload.ProfileID)
	if err != nil {
		return serviceError(c, err, "log sex")
	}

	if _, err := runtime.LogSex(payload.Protected, trimmedOrNil(payload.Notes)); err != nil {
		return serviceError(c, err, "log sex")
	}
	return okResponse(c)
}

func (handler *Handler) LogPregnancyTest(c *fiber.Ctx) error {
	payload := logPregnancyTestPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}
	runtime, err := handler.registry.Resolve(payload.ProfileID)
	if err != nil {
		return serviceError(c, err, "log pregnancy test")
	}

	if _, err := runtime.LogPregnancyTest(payload.Result); err != nil {
		return serviceError(c, err, "log pregnancy test")
	}
	return okResponse(c)
}

// HandleTrigger forwards an entity state change to the notifier and reports
// how many profiles were notified.
func (handler *Handler) HandleTrigger(c *fiber.Ctx) error {
	payload := triggerPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}
	if handler.triggers == nil {
		return apiError(c, fiber.StatusServiceUnavailable, "notifications disabled")
	}

	notified, err := handler.triggers.HandleTrigger(c.UserContext(), payload.EntityID, payload.State)
	if err != nil {
		return serviceError(c, err, "handle trigger")
	}
	return c.JSON(fiber.Map{"ok": true, "notified": notified})
}

var _ TriggerHandler = (*services.NotificationService)(nil)
