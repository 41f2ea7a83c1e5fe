package api

import (
	"time"

	"github.com/terraincognita07/fertility/internal/models"
	"github.com/terraincognita07/fertility/internal/services"
)

func cycleViewOf(record models.CycleRecord) cycleView {
	return cycleView{
		ID:    record.ID,
		Start: record.Start.Format(models.SnapshotDateLayout),
		End:   optionalDay(derefTime(record.End)),
		Notes: record.Notes,
	}
}

func cycleViews(records []models.CycleRecord) []cycleView {
	views := make([]cycleView, 0, len(records))
	for _, record := range records {
		views = append(views, cycleViewOf(record))
	}
	return views
}

func (handler *Handler) metricsViewOf(metrics services.Metrics, language string) metricsView {
	indicators := services.BuildIndicators(metrics)
	view := metricsView{
		Date:                    metrics.Date.Format(models.SnapshotDateLayout),
		CycleDay:                metrics.CycleDay,
		CycleLengthAvg:          metrics.CycleLengthAvg,
		CycleLengthStd:          metrics.CycleLengthStd,
		LastPeriodStart:         optionalDay(metrics.LastPeriodStart),
		LastPeriodEnd:           optionalDay(metrics.LastPeriodEnd),
		NextPeriodDate:          optionalDay(metrics.NextPeriodDate),
		PredictedOvulationDate:  optionalDay(metrics.PredictedOvulationDate),
		FertileWindowStart:      optionalDay(metrics.FertileWindowStart),
		FertileWindowEnd:        optionalDay(metrics.FertileWindowEnd),
		ImplantationWindowStart: optionalDay(metrics.ImplantationWindowStart),
		ImplantationWindowEnd:   optionalDay(metrics.ImplantationWindowEnd),
		RiskState:               indicators.RiskState,
		SafeUnprotectedToday:    indicators.SafeUnprotectedToday,
		HighImplantationRisk:    indicators.HighImplantationRiskToday,
	}
	if metrics.RiskLevel != "" {
		level := metrics.RiskLevel
		reason := string(metrics.RiskReason)
		label := handler.i18n.Translate(language, "risk."+reason)
		view.RiskLevel = &level
		view.RiskReason = &reason
		view.RiskLabel = &label
	}
	return view
}

func (handler *Handler) calendarEventViews(events []services.CalendarEvent, language string) []calendarEventView {
	views := make([]calendarEventView, 0, len(events))
	for _, event := range events {
		views = append(views, calendarEventView{
			Kind:        string(event.Kind),
			Summary:     handler.i18n.Translate(language, "calendar."+string(event.Kind)),
			Description: event.Description,
			Start:       event.Start.Format(time.RFC3339),
			End:         event.End.Format(time.RFC3339Nano),
			AllDay:      event.AllDay,
		})
	}
	return views
}

func optionalDay(value time.Time) *string {
	if value.IsZero() {
		return nil
	}
	formatted := value.Format(models.SnapshotDateLayout)
	return &formatted
}

func derefTime(value *time.Time) time.Time {
	if value == nil {
		return time.Time{}
	}
	return *value
}
