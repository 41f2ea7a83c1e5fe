package services

import (
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/fertility/internal/models"
)

type CalendarEventKind string

const (
	CalendarEventPeriod             CalendarEventKind = "period"
	CalendarEventFertileWindow      CalendarEventKind = "fertile_window"
	CalendarEventImplantationWindow CalendarEventKind = "implantation_window"
	CalendarEventOvulation          CalendarEventKind = "ovulation"
)

const calendarCreatedNotes = "Added via calendar"

var (
	ErrCalendarFromDateInvalid = errors.New("calendar invalid from date")
	ErrCalendarToDateInvalid   = errors.New("calendar invalid to date")
	ErrCalendarRangeInvalid    = errors.New("calendar invalid range")
)

var calendarSummaries = map[CalendarEventKind]string{
	CalendarEventPeriod:             "Period",
	CalendarEventFertileWindow:      "Fertile Window",
	CalendarEventImplantationWindow: "Implantation Window",
	CalendarEventOvulation:          "Predicted Ovulation",
}

type CalendarEvent struct {
	Kind        CalendarEventKind
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// BuildCalendarEvents lists logged periods and the predicted windows that
// overlap [from, to]. Day-level events span the whole local day; ovulation is
// a point at local noon.
func BuildCalendarEvents(cycles []models.CycleRecord, metrics Metrics, from time.Time, to time.Time, location *time.Location) []CalendarEvent {
	if location == nil {
		location = time.UTC
	}
	rangeStart := startOfLocalDay(from, location)
	rangeEnd := endOfLocalDay(to, location)

	events := make([]CalendarEvent, 0, len(cycles)+3)
	addRange := func(kind CalendarEventKind, first time.Time, last time.Time, description string) {
		if first.IsZero() || last.IsZero() {
			return
		}
		start := startOfLocalDay(first, location)
		end := endOfLocalDay(last, location)
		if end.Before(rangeStart) || start.After(rangeEnd) {
			return
		}
		events = append(events, CalendarEvent{
			Kind:        kind,
			Summary:     calendarSummaries[kind],
			Description: description,
			Start:       start,
			End:         end,
			AllDay:      true,
		})
	}

	for _, cycle := range cycles {
		last := cycle.Start
		if cycle.End != nil {
			last = *cycle.End
		}
		description := ""
		if cycle.Notes != nil {
			description = *cycle.Notes
		}
		addRange(CalendarEventPeriod, cycle.Start, last, description)
	}

	addRange(CalendarEventFertileWindow, metrics.FertileWindowStart, metrics.FertileWindowEnd, "")
	addRange(CalendarEventImplantationWindow, metrics.ImplantationWindowStart, metrics.ImplantationWindowEnd, "")

	if !metrics.PredictedOvulationDate.IsZero() {
		y, m, d := metrics.PredictedOvulationDate.Date()
		point := time.Date(y, m, d, 12, 0, 0, 0, location)
		if !point.Before(rangeStart) && !point.After(rangeEnd) {
			events = append(events, CalendarEvent{
				Kind:    CalendarEventOvulation,
				Summary: calendarSummaries[CalendarEventOvulation],
				Start:   point,
				End:     point,
			})
		}
	}

	return events
}

func (runtime *ProfileRuntime) CalendarEvents(from time.Time, to time.Time) []CalendarEvent {
	runtime.mu.Lock()
	cycles := runtime.profile.Cycles()
	settings := runtime.profile.PredictionSettings()
	runtime.mu.Unlock()

	metrics := BuildMetrics(cycles, settings, runtime.Now())
	return BuildCalendarEvents(cycles, metrics, from, to, runtime.location)
}

// CreateCalendarEvent accepts only period events, recognized by the summary.
// created is false when the summary names something else.
func (runtime *ProfileRuntime) CreateCalendarEvent(summary string, start time.Time, end *time.Time) (models.CycleRecord, bool, error) {
	if !strings.Contains(strings.ToLower(summary), "period") {
		return models.CycleRecord{}, false, nil
	}

	last := start
	if end != nil {
		last = *end
	}
	notes := calendarCreatedNotes
	record, err := runtime.AddPeriod(start, &last, &notes)
	if err != nil {
		return models.CycleRecord{}, false, err
	}
	return record, true, nil
}

// ParseCalendarRange reads optional YYYY-MM-DD bounds. A missing bound
// defaults to the other one, or to today when both are missing.
func ParseCalendarRange(rawFrom string, rawTo string, today time.Time) (time.Time, time.Time, error) {
	fromRaw := strings.TrimSpace(rawFrom)
	toRaw := strings.TrimSpace(rawTo)

	var from, to time.Time
	if fromRaw != "" {
		parsed, err := time.Parse(models.SnapshotDateLayout, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrCalendarFromDateInvalid
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.Parse(models.SnapshotDateLayout, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrCalendarToDateInvalid
		}
		to = parsed
	}

	switch {
	case from.IsZero() && to.IsZero():
		from, to = dateOnly(today), dateOnly(today)
	case from.IsZero():
		from = to
	case to.IsZero():
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrCalendarRangeInvalid
	}
	return from, to, nil
}

func startOfLocalDay(day time.Time, location *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, location)
}

func endOfLocalDay(day time.Time, location *time.Location) time.Time {
	return startOfLocalDay(day, location).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
