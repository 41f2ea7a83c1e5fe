package models

import "time"

const (
	DefaultProfileName       = "Fertility"
	DefaultLutealDays        = 14
	DefaultRecentWeight      = 0.7
	DefaultLongWeight        = 0.3
	DefaultRecentWindow      = 3
	DefaultDailyReminderTime = "09:00:00"
	DefaultQuietHoursStart   = "22:00:00"
	DefaultQuietHoursEnd     = "07:00:00"
)

const (
	PregnancyTestPositive     = "positive"
	PregnancyTestNegative     = "negative"
	PregnancyTestInconclusive = "inconclusive"
)

// CycleRecord is one logged period. End is nil while the period is open.
type CycleRecord struct {
	ID    string
	Start time.Time
	End   *time.Time
	Notes *string
}

type SexLogRecord struct {
	Timestamp time.Time
	Protected bool
	Notes     *string
}

type PregnancyTestRecord struct {
	Timestamp time.Time
	Result    string
}

// Covers reports whether day falls inside the logged period. An open period
// covers its start day only.
func (record CycleRecord) Covers(day time.Time) bool {
	day = DateOnly(day)
	end := record.Start
	if record.End != nil {
		end = *record.End
	}
	return !day.Before(record.Start) && !day.After(end)
}

// DateOnly drops the time of day and pins the calendar date to UTC so that
// stored dates compare and serialize independently of the caller's zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
