package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/services"
)

type calendarEventPayload struct {
	Summary string  `json:"summary" validate:"required,max=200"`
	Start   string  `json:"start" validate:"required,datetime=2006-01-02"`
	End     *string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "fetch calendar")
	}

	from, to, err := services.ParseCalendarRange(c.Query("from"), c.Query("to"), runtime.Now())
	if err != nil {
		return serviceError(c, err, "fetch calendar")
	}

	events := runtime.CalendarEvents(from, to)
	return c.JSON(handler.calendarEventViews(events, handler.currentLanguage(c)))
}

// CreateCalendarEvent accepts events from a calendar client; only
// period-like summaries are stored.
func (handler *Handler) CreateCalendarEvent(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "create calendar event")
	}

	payload := calendarEventPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}

	start, err := parseDayParam(payload.Start)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid start date")
	}
	end, err := parseOptionalEnd(payload.End)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid end date")
	}

	record, created, err := runtime.CreateCalendarEvent(payload.Summary, start, end)
	if err != nil {
		return serviceError(c, err, "create calendar event")
	}
	if !created {
		return c.JSON(fiber.Map{"ok": false})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "cycle": cycleViewOf(record)})
}
