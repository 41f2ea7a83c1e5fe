package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FertilityProfile is the aggregate root for one tracked person. It owns the
// cycle, sex-log and pregnancy-test collections; callers reach them only
// through the methods below. Mutations are not synchronized.
type FertilityProfile struct {
	ID                string
	Name              string
	LutealDays        int
	RecentWeight      float64
	LongWeight        float64
	RecentWindow      int
	NotifyServices    []string
	TriggerEntities   []string
	QuietHoursStart   string
	QuietHoursEnd     string
	DailyReminderTime string
	LastNotifiedDate  *string

	cycles         []CycleRecord
	sexEvents      []SexLogRecord
	pregnancyTests []PregnancyTestRecord
}

// CyclePatch describes an edit. A nil Start keeps the stored start; End and
// Notes distinguish "leave unchanged" from "clear".
type CyclePatch struct {
	Start *time.Time
	End   Optional[time.Time]
	Notes Optional[string]
}

// PredictionSettings are the numbers the metrics engine reads from a profile.
type PredictionSettings struct {
	LutealDays   int
	RecentWeight float64
	LongWeight   float64
	RecentWindow int
}

func NewFertilityProfile(id string, name string) *FertilityProfile {
	return &FertilityProfile{
		ID:                id,
		Name:              name,
		LutealDays:        DefaultLutealDays,
		RecentWeight:      DefaultRecentWeight,
		LongWeight:        DefaultLongWeight,
		RecentWindow:      DefaultRecentWindow,
		NotifyServices:    []string{},
		TriggerEntities:   []string{},
		QuietHoursStart:   DefaultQuietHoursStart,
		QuietHoursEnd:     DefaultQuietHoursEnd,
		DailyReminderTime: DefaultDailyReminderTime,
		cycles:            []CycleRecord{},
		sexEvents:         []SexLogRecord{},
		pregnancyTests:    []PregnancyTestRecord{},
	}
}

// Clone returns a deep copy that shares no mutable state with profile.
func (profile *FertilityProfile) Clone() *FertilityProfile {
	clone := *profile
	clone.NotifyServices = append([]string{}, profile.NotifyServices...)
	clone.TriggerEntities = append([]string{}, profile.TriggerEntities...)
	clone.LastNotifiedDate = cloneString(profile.LastNotifiedDate)
	clone.cycles = profile.Cycles()
	clone.sexEvents = profile.SexEvents()
	clone.pregnancyTests = profile.PregnancyTests()
	return &clone
}

func (profile *FertilityProfile) PredictionSettings() PredictionSettings {
	return PredictionSettings{
		LutealDays:   profile.LutealDays,
		RecentWeight: profile.RecentWeight,
		LongWeight:   profile.LongWeight,
		RecentWindow: profile.RecentWindow,
	}
}

// Cycles returns a copy of the cycle records sorted by start.
func (profile *FertilityProfile) Cycles() []CycleRecord {
	result := make([]CycleRecord, 0, len(profile.cycles))
	for _, record := range profile.cycles {
		result = append(result, cloneCycle(record))
	}
	return result
}

func (profile *FertilityProfile) SexEvents() []SexLogRecord {
	result := make([]SexLogRecord, 0, len(profile.sexEvents))
	for _, event := range profile.sexEvents {
		event.Notes = cloneString(event.Notes)
		result = append(result, event)
	}
	return result
}

func (profile *FertilityProfile) PregnancyTests() []PregnancyTestRecord {
	result := make([]PregnancyTestRecord, len(profile.pregnancyTests))
	copy(result, profile.pregnancyTests)
	return result
}

func (profile *FertilityProfile) FindCycle(id string) (CycleRecord, bool) {
	for _, record := range profile.cycles {
		if record.ID == id {
			return cloneCycle(record), true
		}
	}
	return CycleRecord{}, false
}

func (profile *FertilityProfile) AddPeriod(start time.Time, end *time.Time, notes *string) CycleRecord {
	record := CycleRecord{
		ID:    uuid.NewString(),
		Start: DateOnly(start),
		Notes: cloneString(notes),
	}
	if end != nil {
		endDay := DateOnly(*end)
		record.End = &endDay
	}

	profile.cycles = append(profile.cycles, record)
	profile.sortCycles()
	return cloneCycle(record)
}

// EditCycle applies patch to the record with the given id and reports
// whether it was found. Unknown ids leave the collection untouched.
func (profile *FertilityProfile) EditCycle(id string, patch CyclePatch) bool {
	for index := range profile.cycles {
		record := &profile.cycles[index]
		if record.ID != id {
			continue
		}

		if patch.Start != nil {
			record.Start = DateOnly(*patch.Start)
		}
		if patch.End.Present() {
			record.End = nil
			if end, ok := patch.End.Get(); ok {
				endDay := DateOnly(end)
				record.End = &endDay
			}
		}
		if patch.Notes.Present() {
			record.Notes = patch.Notes.Pointer()
		}

		profile.sortCycles()
		return true
	}
	return false
}

func (profile *FertilityProfile) DeleteCycle(id string) bool {
	for index, record := range profile.cycles {
		if record.ID == id {
			profile.cycles = append(profile.cycles[:index], profile.cycles[index+1:]...)
			return true
		}
	}
	return false
}

// SetLastCycleEnd closes the most recent period. It reports false when no
// period has been logged yet.
func (profile *FertilityProfile) SetLastCycleEnd(end time.Time) bool {
	if len(profile.cycles) == 0 {
		return false
	}
	endDay := DateOnly(end)
	profile.cycles[len(profile.cycles)-1].End = &endDay
	return true
}

func (profile *FertilityProfile) LogSex(timestamp time.Time, protected bool, notes *string) SexLogRecord {
	event := SexLogRecord{
		Timestamp: timestamp,
		Protected: protected,
		Notes:     cloneString(notes),
	}
	profile.sexEvents = append(profile.sexEvents, event)
	return event
}

func (profile *FertilityProfile) LogPregnancyTest(timestamp time.Time, result string) PregnancyTestRecord {
	test := PregnancyTestRecord{Timestamp: timestamp, Result: result}
	profile.pregnancyTests = append(profile.pregnancyTests, test)
	return test
}

func (profile *FertilityProfile) sortCycles() {
	sort.SliceStable(profile.cycles, func(i, j int) bool {
		return profile.cycles[i].Start.Before(profile.cycles[j].Start)
	})
}

func cloneCycle(record CycleRecord) CycleRecord {
	record.End = cloneTime(record.End)
	record.Notes = cloneString(record.Notes)
	return record
}
