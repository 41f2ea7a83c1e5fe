package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/services"
)

func (handler *Handler) ListProfiles(c *fiber.Ctx) error {
	runtimes := handler.registry.Runtimes()
	profiles := make([]profileSummaryView, 0, len(runtimes))
	for _, runtime := range runtimes {
		profiles = append(profiles, profileSummaryView{ID: runtime.ID(), Name: runtime.Name()})
	}
	return c.JSON(profiles)
}

// DiscoverProfile returns the first configured profile for clients that do
// not know an id yet.
func (handler *Handler) DiscoverProfile(c *fiber.Ctx) error {
	runtime, found := handler.registry.Discover()
	if !found {
		return apiError(c, fiber.StatusNotFound, "profile not found")
	}
	return c.JSON(profileSummaryView{ID: runtime.ID(), Name: runtime.Name()})
}

func (handler *Handler) ExportProfile(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "export profile")
	}
	return c.JSON(runtime.Snapshot())
}

func (handler *Handler) GetMetrics(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "load metrics")
	}

	at := runtime.Now()
	if raw := c.Query("date"); raw != "" {
		day, err := parseDayParam(raw)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid date")
		}
		at = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, runtime.Location())
	}

	metrics := runtime.MetricsAt(at)
	return c.JSON(handler.metricsViewOf(metrics, handler.currentLanguage(c)))
}

func (handler *Handler) GetOptions(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "load options")
	}
	return c.JSON(runtime.Options())
}

type optionsPayload struct {
	Name              *string  `json:"name" validate:"omitempty,min=1,max=100"`
	LutealDays        *int     `json:"luteal_days" validate:"omitempty,min=8,max=20"`
	RecentWeight      *float64 `json:"recent_weight"`
	LongWeight        *float64 `json:"long_weight"`
	RecentWindow      *int     `json:"recent_window" validate:"omitempty,min=1,max=12"`
	NotifyServices    []string `json:"notify_services"`
	TriggerEntities   []string `json:"trigger_entities"`
	DailyReminderTime *string  `json:"daily_reminder_time"`
	QuietHoursStart   *string  `json:"quiet_hours_start"`
	QuietHoursEnd     *string  `json:"quiet_hours_end"`
}

func (handler *Handler) UpdateOptions(c *fiber.Ctx) error {
	runtime, err := handler.profileFromParam(c)
	if err != nil {
		return serviceError(c, err, "update options")
	}

	payload := optionsPayload{}
	if ok, err := bindPayload(c, &payload); !ok {
		return err
	}

	view, err := runtime.UpdateOptions(services.ProfileOptions{
		Name:              payload.Name,
		LutealDays:        payload.LutealDays,
		RecentWeight:      payload.RecentWeight,
		LongWeight:        payload.LongWeight,
		RecentWindow:      payload.RecentWindow,
		NotifyServices:    payload.NotifyServices,
		TriggerEntities:   payload.TriggerEntities,
		DailyReminderTime: payload.DailyReminderTime,
		QuietHoursStart:   payload.QuietHoursStart,
		QuietHoursEnd:     payload.QuietHoursEnd,
	})
	if err != nil {
		return serviceError(c, err, "update options")
	}
	return c.JSON(view)
}
