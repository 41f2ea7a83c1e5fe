package api

import (
	"context"
	"time"

	"github.com/terraincognita07/fertility/internal/i18n"
	"github.com/terraincognita07/fertility/internal/services"
)

const contextLanguageKey = "language"

// TriggerHandler receives entity state changes forwarded by the home
// automation bridge.
type TriggerHandler interface {
	HandleTrigger(ctx context.Context, entityID string, state string) (int, error)
}

type Handler struct {
	registry *services.ProfileRegistry
	triggers TriggerHandler
	location *time.Location
	i18n     *i18n.Manager
}

func NewHandler(registry *services.ProfileRegistry, triggers TriggerHandler, location *time.Location, i18nManager *i18n.Manager) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		registry: registry,
		triggers: triggers,
		location: location,
		i18n:     i18nManager,
	}
}

type cycleView struct {
	ID    string  `json:"id"`
	Start string  `json:"start"`
	End   *string `json:"end"`
	Notes *string `json:"notes"`
}

type metricsView struct {
	Date                    string   `json:"date"`
	CycleDay                *int     `json:"cycle_day"`
	CycleLengthAvg          *float64 `json:"cycle_length_avg"`
	CycleLengthStd          *float64 `json:"cycle_length_std"`
	LastPeriodStart         *string  `json:"last_period_start"`
	LastPeriodEnd           *string  `json:"last_period_end"`
	NextPeriodDate          *string  `json:"next_period_date"`
	PredictedOvulationDate  *string  `json:"predicted_ovulation_date"`
	FertileWindowStart      *string  `json:"fertile_window_start"`
	FertileWindowEnd        *string  `json:"fertile_window_end"`
	ImplantationWindowStart *string  `json:"implantation_window_start"`
	ImplantationWindowEnd   *string  `json:"implantation_window_end"`
	RiskLevel               *string  `json:"risk_level"`
	RiskReason              *string  `json:"risk_reason"`
	RiskLabel               *string  `json:"risk_label"`
	RiskState               string   `json:"risk_state"`
	SafeUnprotectedToday    bool     `json:"safe_unprotected_today"`
	HighImplantationRisk    bool     `json:"high_implantation_risk_today"`
}

type calendarEventView struct {
	Kind        string `json:"kind"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"all_day"`
}

type profileSummaryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
