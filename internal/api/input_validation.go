package api

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/fertility/internal/models"
)

var errDateRequired = errors.New("date is required")

var validate = newValidator()

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	instance := validator.New()
	instance.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return instance
}

// validatePayload returns nil when the payload passes its struct tags.
func validatePayload(payload any) []fieldError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []fieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]fieldError, 0, len(validationErrors))
	for _, failure := range validationErrors {
		fields = append(fields, fieldError{
			Field:   failure.Field(),
			Message: validationMessage(failure),
		})
	}
	return fields
}

func validationMessage(failure validator.FieldError) string {
	switch failure.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + failure.Param()
	case "max":
		return "must be at most " + failure.Param()
	case "oneof":
		return "must be one of: " + failure.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "uuid4":
		return "must be a cycle id"
	default:
		return "is invalid"
	}
}

// bindPayload parses a JSON body and runs struct validation. It writes the
// error reply itself and reports false when the handler should stop.
func bindPayload(c *fiber.Ctx, payload any) (bool, error) {
	if err := c.BodyParser(payload); err != nil {
		return false, apiError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if fields := validatePayload(payload); len(fields) > 0 {
		return false, validationError(c, fields)
	}
	return true, nil
}

func parseDayParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errDateRequired
	}
	parsed, err := time.Parse(models.SnapshotDateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

// parseOptionalDay falls back to the local calendar date of now.
func parseOptionalDay(raw *string, now time.Time) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return models.DateOnly(now), nil
	}
	return parseDayParam(*raw)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
