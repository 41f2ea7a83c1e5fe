package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.LanguageMiddleware)

	profiles := api.Group("/profiles")
	profiles.Get("", handler.ListProfiles)
	profiles.Get("/discover", handler.DiscoverProfile)

	profile := profiles.Group("/:id")
	profile.Get("/cycles", handler.ListCycles)
	profile.Post("/cycles", handler.CreateCycle)
	profile.Patch("/cycles/:cycleID", handler.EditCycle)
	profile.Delete("/cycles/:cycleID", handler.DeleteCycle)
	profile.Get("/export", handler.ExportProfile)
	profile.Get("/metrics", handler.GetMetrics)
	profile.Get("/calendar", handler.GetCalendar)
	profile.Post("/calendar/events", handler.CreateCalendarEvent)
	profile.Get("/options", handler.GetOptions)
	profile.Put("/options", handler.UpdateOptions)

	serviceCalls := api.Group("/services")
	serviceCalls.Post("/log_period_start", handler.LogPeriodStart)
	serviceCalls.Post("/log_period_end", handler.LogPeriodEnd)
	serviceCalls.Post("/log_sex", handler.LogSex)
	serviceCalls.Post("/log_pregnancy_test", handler.LogPregnancyTest)

	api.Post("/triggers", handler.HandleTrigger)
}
