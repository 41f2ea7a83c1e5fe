package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SnapshotDateLayout = "2006-01-02"
	// SnapshotVersion is bumped when the stored layout changes incompatibly.
	SnapshotVersion = 1
)

var (
	ErrSnapshotFieldMissing = errors.New("missing required field")
	ErrSnapshotFieldInvalid = errors.New("invalid field value")
)

// SnapshotFieldError identifies the snapshot path that failed to load,
// e.g. "cycles[2].start".
type SnapshotFieldError struct {
	Field string
	Err   error
}

func (err *SnapshotFieldError) Error() string {
	return fmt.Sprintf("snapshot field %s: %v", err.Field, err.Err)
}

func (err *SnapshotFieldError) Unwrap() error {
	return err.Err
}

// ProfileSnapshot is the storage form of a FertilityProfile. Pointer fields
// let the loader tell a missing key from a zero value.
type ProfileSnapshot struct {
	Name              *string                 `json:"name" yaml:"name"`
	LutealDays        *int                    `json:"luteal_days" yaml:"luteal_days"`
	RecentWeight      *float64                `json:"recent_weight" yaml:"recent_weight"`
	LongWeight        *float64                `json:"long_weight" yaml:"long_weight"`
	RecentWindow      *int                    `json:"recent_window" yaml:"recent_window"`
	NotifyServices    []string                `json:"notify_services" yaml:"notify_services"`
	TriggerEntities   []string                `json:"trigger_entities" yaml:"trigger_entities"`
	QuietHoursStart   *string                 `json:"quiet_hours_start" yaml:"quiet_hours_start"`
	QuietHoursEnd     *string                 `json:"quiet_hours_end" yaml:"quiet_hours_end"`
	DailyReminderTime *string                 `json:"daily_reminder_time" yaml:"daily_reminder_time"`
	Cycles            []CycleSnapshot         `json:"cycles" yaml:"cycles"`
	SexEvents         []SexEventSnapshot      `json:"sex_events" yaml:"sex_events"`
	PregnancyTests    []PregnancyTestSnapshot `json:"pregnancy_tests" yaml:"pregnancy_tests"`
	LastNotifiedDate  *string                 `json:"last_notified_date" yaml:"last_notified_date"`
}

type CycleSnapshot struct {
	ID    *string `json:"id" yaml:"id"`
	Start *string `json:"start" yaml:"start"`
	End   *string `json:"end" yaml:"end"`
	Notes *string `json:"notes" yaml:"notes"`
}

type SexEventSnapshot struct {
	Timestamp *string `json:"ts" yaml:"ts"`
	Protected *bool   `json:"protected" yaml:"protected"`
	Notes     *string `json:"notes" yaml:"notes"`
}

type PregnancyTestSnapshot struct {
	Timestamp *string `json:"ts" yaml:"ts"`
	Result    *string `json:"result" yaml:"result"`
}

func (profile *FertilityProfile) ToSnapshot() ProfileSnapshot {
	snapshot := ProfileSnapshot{
		Name:              stringPtr(profile.Name),
		LutealDays:        intPtr(profile.LutealDays),
		RecentWeight:      floatPtr(profile.RecentWeight),
		LongWeight:        floatPtr(profile.LongWeight),
		RecentWindow:      intPtr(profile.RecentWindow),
		NotifyServices:    copyStrings(profile.NotifyServices),
		TriggerEntities:   copyStrings(profile.TriggerEntities),
		QuietHoursStart:   stringPtr(profile.QuietHoursStart),
		QuietHoursEnd:     stringPtr(profile.QuietHoursEnd),
		DailyReminderTime: stringPtr(profile.DailyReminderTime),
		Cycles:            make([]CycleSnapshot, 0, len(profile.cycles)),
		SexEvents:         make([]SexEventSnapshot, 0, len(profile.sexEvents)),
		PregnancyTests:    make([]PregnancyTestSnapshot, 0, len(profile.pregnancyTests)),
		LastNotifiedDate:  cloneString(profile.LastNotifiedDate),
	}

	for _, record := range profile.cycles {
		entry := CycleSnapshot{
			ID:    stringPtr(record.ID),
			Start: stringPtr(record.Start.Format(SnapshotDateLayout)),
			Notes: cloneString(record.Notes),
		}
		if record.End != nil {
			entry.End = stringPtr(record.End.Format(SnapshotDateLayout))
		}
		snapshot.Cycles = append(snapshot.Cycles, entry)
	}
	for _, event := range profile.sexEvents {
		snapshot.SexEvents = append(snapshot.SexEvents, SexEventSnapshot{
			Timestamp: stringPtr(event.Timestamp.Format(time.RFC3339Nano)),
			Protected: boolPtr(event.Protected),
			Notes:     cloneString(event.Notes),
		})
	}
	for _, test := range profile.pregnancyTests {
		snapshot.PregnancyTests = append(snapshot.PregnancyTests, PregnancyTestSnapshot{
			Timestamp: stringPtr(test.Timestamp.Format(time.RFC3339Nano)),
			Result:    stringPtr(test.Result),
		})
	}

	return snapshot
}

// ProfileFromSnapshot rebuilds a profile. Missing configuration falls back to
// the package defaults; missing or unparsable record fields fail with a
// *SnapshotFieldError.
func ProfileFromSnapshot(id string, snapshot ProfileSnapshot) (*FertilityProfile, error) {
	if snapshot.Name == nil {
		return nil, &SnapshotFieldError{Field: "name", Err: ErrSnapshotFieldMissing}
	}

	profile := NewFertilityProfile(id, *snapshot.Name)
	if snapshot.LutealDays != nil {
		profile.LutealDays = *snapshot.LutealDays
	}
	if snapshot.RecentWeight != nil {
		profile.RecentWeight = *snapshot.RecentWeight
	}
	if snapshot.LongWeight != nil {
		profile.LongWeight = *snapshot.LongWeight
	}
	if snapshot.RecentWindow != nil {
		profile.RecentWindow = *snapshot.RecentWindow
	}
	if snapshot.NotifyServices != nil {
		profile.NotifyServices = copyStrings(snapshot.NotifyServices)
	}
	if snapshot.TriggerEntities != nil {
		profile.TriggerEntities = copyStrings(snapshot.TriggerEntities)
	}
	if snapshot.QuietHoursStart != nil {
		profile.QuietHoursStart = *snapshot.QuietHoursStart
	}
	if snapshot.QuietHoursEnd != nil {
		profile.QuietHoursEnd = *snapshot.QuietHoursEnd
	}
	if snapshot.DailyReminderTime != nil {
		profile.DailyReminderTime = *snapshot.DailyReminderTime
	}
	profile.LastNotifiedDate = cloneString(snapshot.LastNotifiedDate)

	cycles, err := cyclesFromSnapshot(snapshot.Cycles)
	if err != nil {
		return nil, err
	}
	sexEvents, err := sexEventsFromSnapshot(snapshot.SexEvents)
	if err != nil {
		return nil, err
	}
	pregnancyTests, err := pregnancyTestsFromSnapshot(snapshot.PregnancyTests)
	if err != nil {
		return nil, err
	}

	profile.cycles = cycles
	profile.sexEvents = sexEvents
	profile.pregnancyTests = pregnancyTests
	profile.sortCycles()
	return profile, nil
}

func cyclesFromSnapshot(entries []CycleSnapshot) ([]CycleRecord, error) {
	cycles := make([]CycleRecord, 0, len(entries))
	for index, entry := range entries {
		field := func(name string) string {
			return fmt.Sprintf("cycles[%d].%s", index, name)
		}

		if entry.ID == nil || strings.TrimSpace(*entry.ID) == "" {
			return nil, &SnapshotFieldError{Field: field("id"), Err: ErrSnapshotFieldMissing}
		}
		if entry.Start == nil {
			return nil, &SnapshotFieldError{Field: field("start"), Err: ErrSnapshotFieldMissing}
		}
		start, err := ParseSnapshotDate(*entry.Start)
		if err != nil {
			return nil, &SnapshotFieldError{Field: field("start"), Err: invalidField(err)}
		}

		record := CycleRecord{
			ID:    *entry.ID,
			Start: start,
			Notes: cloneString(entry.Notes),
		}
		if entry.End != nil && strings.TrimSpace(*entry.End) != "" {
			end, err := ParseSnapshotDate(*entry.End)
			if err != nil {
				return nil, &SnapshotFieldError{Field: field("end"), Err: invalidField(err)}
			}
			record.End = &end
		}
		cycles = append(cycles, record)
	}
	return cycles, nil
}

func sexEventsFromSnapshot(entries []SexEventSnapshot) ([]SexLogRecord, error) {
	events := make([]SexLogRecord, 0, len(entries))
	for index, entry := range entries {
		if entry.Timestamp == nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("sex_events[%d].ts", index), Err: ErrSnapshotFieldMissing}
		}
		timestamp, err := ParseSnapshotTimestamp(*entry.Timestamp)
		if err != nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("sex_events[%d].ts", index), Err: invalidField(err)}
		}
		if entry.Protected == nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("sex_events[%d].protected", index), Err: ErrSnapshotFieldMissing}
		}
		events = append(events, SexLogRecord{
			Timestamp: timestamp,
			Protected: *entry.Protected,
			Notes:     cloneString(entry.Notes),
		})
	}
	return events, nil
}

func pregnancyTestsFromSnapshot(entries []PregnancyTestSnapshot) ([]PregnancyTestRecord, error) {
	tests := make([]PregnancyTestRecord, 0, len(entries))
	for index, entry := range entries {
		if entry.Timestamp == nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("pregnancy_tests[%d].ts", index), Err: ErrSnapshotFieldMissing}
		}
		timestamp, err := ParseSnapshotTimestamp(*entry.Timestamp)
		if err != nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("pregnancy_tests[%d].ts", index), Err: invalidField(err)}
		}
		if entry.Result == nil {
			return nil, &SnapshotFieldError{Field: fmt.Sprintf("pregnancy_tests[%d].result", index), Err: ErrSnapshotFieldMissing}
		}
		tests = append(tests, PregnancyTestRecord{Timestamp: timestamp, Result: *entry.Result})
	}
	return tests, nil
}

// ParseSnapshotDate accepts an ISO date, or an ISO timestamp whose date part
// is used.
func ParseSnapshotDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if parsed, err := time.Parse(SnapshotDateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := ParseSnapshotTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q", raw)
	}
	return DateOnly(parsed), nil
}

// ParseSnapshotTimestamp accepts RFC 3339 and zone-less ISO timestamps; the
// latter are read as UTC.
func ParseSnapshotTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", raw)
}

func EncodeSnapshot(snapshot ProfileSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

func DecodeSnapshot(data []byte) (ProfileSnapshot, error) {
	snapshot := ProfileSnapshot{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return ProfileSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// ToMap renders the snapshot as plain nested maps and slices.
func (snapshot ProfileSnapshot) ToMap() (map[string]any, error) {
	encoded, err := EncodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	result := map[string]any{}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func invalidField(err error) error {
	return fmt.Errorf("%w: %v", ErrSnapshotFieldInvalid, err)
}

func stringPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func copyStrings(values []string) []string {
	result := make([]string, len(values))
	copy(result, values)
	return result
}
