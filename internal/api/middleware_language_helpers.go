package api

import "github.com/gofiber/fiber/v2"

// LanguageMiddleware picks the response language from ?lang, then
// Accept-Language, then the configured default.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	language := handler.i18n.DetectFromAcceptLanguage(c.Get("Accept-Language"))
	if queryLanguage := c.Query("lang"); queryLanguage != "" {
		language = handler.i18n.NormalizeLanguage(queryLanguage)
	}
	c.Locals(contextLanguageKey, language)
	return c.Next()
}

func (handler *Handler) currentLanguage(c *fiber.Ctx) string {
	if language, ok := c.Locals(contextLanguageKey).(string); ok && language != "" {
		return language
	}
	return handler.i18n.DefaultLanguage()
}
