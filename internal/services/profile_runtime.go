package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/fertility/internal/models"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileIDRequired    = errors.New("profile id required")
	ErrCycleNotFound        = errors.New("cycle not found")
	ErrNoCyclesLogged       = errors.New("no cycles logged")
	ErrInvalidPregnancyTest = errors.New("invalid pregnancy test result")
	ErrPersistProfileFailed = errors.New("persist profile failed")
	ErrInvalidCycleRange    = errors.New("cycle end before start")
)

type ProfileSnapshotRepository interface {
	Save(profileID string, snapshot models.ProfileSnapshot) error
	Load(profileID string) (models.ProfileSnapshot, bool, error)
	ListIDs() ([]string, error)
}

// ProfileRuntime serializes access to one profile and persists a snapshot
// after every mutation.
type ProfileRuntime struct {
	mu       sync.Mutex
	profile  *models.FertilityProfile
	repo     ProfileSnapshotRepository
	location *time.Location
	now      func() time.Time
}

func newProfileRuntime(profile *models.FertilityProfile, repo ProfileSnapshotRepository, location *time.Location, now func() time.Time) *ProfileRuntime {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileRuntime{
		profile:  profile,
		repo:     repo,
		location: location,
		now:      now,
	}
}

func (runtime *ProfileRuntime) ID() string {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return runtime.profile.ID
}

func (runtime *ProfileRuntime) Name() string {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return runtime.profile.Name
}

func (runtime *ProfileRuntime) Location() *time.Location {
	return runtime.location
}

// Now is the current instant in the runtime's zone.
func (runtime *ProfileRuntime) Now() time.Time {
	return runtime.now().In(runtime.location)
}

func (runtime *ProfileRuntime) Cycles() []models.CycleRecord {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return runtime.profile.Cycles()
}

func (runtime *ProfileRuntime) Options() OptionsView {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return optionsViewOf(runtime.profile)
}

func (runtime *ProfileRuntime) Snapshot() models.ProfileSnapshot {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return runtime.profile.ToSnapshot()
}

// MetricsAt evaluates the profile on the calendar date of at in the
// runtime's zone.
func (runtime *ProfileRuntime) MetricsAt(at time.Time) Metrics {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()
	return BuildMetrics(runtime.profile.Cycles(), runtime.profile.PredictionSettings(), at.In(runtime.location))
}

func (runtime *ProfileRuntime) Today() Metrics {
	return runtime.MetricsAt(runtime.now())
}

func (runtime *ProfileRuntime) AddPeriod(start time.Time, end *time.Time, notes *string) (models.CycleRecord, error) {
	if end != nil && dateOnly(*end).Before(dateOnly(start)) {
		return models.CycleRecord{}, ErrInvalidCycleRange
	}

	var record models.CycleRecord
	err := runtime.mutate(func(profile *models.FertilityProfile) error {
		record = profile.AddPeriod(start, end, notes)
		return nil
	})
	return record, err
}

func (runtime *ProfileRuntime) EditCycle(cycleID string, patch models.CyclePatch) error {
	return runtime.mutate(func(profile *models.FertilityProfile) error {
		current, found := profile.FindCycle(cycleID)
		if !found {
			return ErrCycleNotFound
		}

		start := current.Start
		if patch.Start != nil {
			start = dateOnly(*patch.Start)
		}
		end := current.End
		if patch.End.Present() {
			end = patch.End.Pointer()
		}
		if end != nil && dateOnly(*end).Before(start) {
			return ErrInvalidCycleRange
		}

		profile.EditCycle(cycleID, patch)
		return nil
	})
}

func (runtime *ProfileRuntime) DeleteCycle(cycleID string) error {
	return runtime.mutate(func(profile *models.FertilityProfile) error {
		if !profile.DeleteCycle(cycleID) {
			return ErrCycleNotFound
		}
		return nil
	})
}

func (runtime *ProfileRuntime) LogPeriodStart(day time.Time, notes *string) (models.CycleRecord, error) {
	return runtime.AddPeriod(day, nil, notes)
}

// LogPeriodEnd closes the named cycle, or the latest one when cycleID is
// empty.
func (runtime *ProfileRuntime) LogPeriodEnd(day time.Time, cycleID string) error {
	cycleID = strings.TrimSpace(cycleID)
	if cycleID != "" {
		return runtime.EditCycle(cycleID, models.CyclePatch{End: models.Set(dateOnly(day))})
	}

	return runtime.mutate(func(profile *models.FertilityProfile) error {
		cycles := profile.Cycles()
		if len(cycles) == 0 {
			return ErrNoCyclesLogged
		}
		if dateOnly(day).Before(cycles[len(cycles)-1].Start) {
			return ErrInvalidCycleRange
		}
		profile.SetLastCycleEnd(day)
		return nil
	})
}

// LogSex records an event stamped with the current instant.
func (runtime *ProfileRuntime) LogSex(protected bool, notes *string) (models.SexLogRecord, error) {
	var record models.SexLogRecord
	err := runtime.mutate(func(profile *models.FertilityProfile) error {
		record = profile.LogSex(runtime.Now(), protected, notes)
		return nil
	})
	return record, err
}

func (runtime *ProfileRuntime) LogPregnancyTest(result string) (models.PregnancyTestRecord, error) {
	result = strings.ToLower(strings.TrimSpace(result))
	switch result {
	case models.PregnancyTestPositive, models.PregnancyTestNegative, models.PregnancyTestInconclusive:
	default:
		return models.PregnancyTestRecord{}, fmt.Errorf("%w: %q", ErrInvalidPregnancyTest, result)
	}

	var record models.PregnancyTestRecord
	err := runtime.mutate(func(profile *models.FertilityProfile) error {
		record = profile.LogPregnancyTest(runtime.Now(), result)
		return nil
	})
	return record, err
}

func (runtime *ProfileRuntime) UpdateOptions(options ProfileOptions) (OptionsView, error) {
	var view OptionsView
	err := runtime.mutate(func(profile *models.FertilityProfile) error {
		if err := applyOptions(profile, options); err != nil {
			return err
		}
		view = optionsViewOf(profile)
		return nil
	})
	return view, err
}

// Replace swaps the whole profile state for the one described by snapshot.
func (runtime *ProfileRuntime) Replace(snapshot models.ProfileSnapshot) error {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()

	restored, err := models.ProfileFromSnapshot(runtime.profile.ID, snapshot)
	if err != nil {
		return err
	}
	if err := runtime.persistLocked(restored); err != nil {
		return err
	}
	runtime.profile = restored
	return nil
}

type notificationView struct {
	name              string
	notifyServices    []string
	triggerEntities   []string
	quietHoursStart   string
	quietHoursEnd     string
	dailyReminderTime string
	cycles            []models.CycleRecord
	settings          models.PredictionSettings
}

func (runtime *ProfileRuntime) notificationView() notificationView {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()

	profile := runtime.profile
	view := notificationView{
		name:              profile.Name,
		notifyServices:    append([]string{}, profile.NotifyServices...),
		triggerEntities:   append([]string{}, profile.TriggerEntities...),
		quietHoursStart:   profile.QuietHoursStart,
		quietHoursEnd:     profile.QuietHoursEnd,
		dailyReminderTime: profile.DailyReminderTime,
		cycles:            profile.Cycles(),
		settings:          profile.PredictionSettings(),
	}
	return view
}

// claimNotifiedDay records day as notified unless it already is. Only one
// caller per day gets true; previous is the date it replaced.
func (runtime *ProfileRuntime) claimNotifiedDay(day string) (previous *string, claimed bool, err error) {
	err = runtime.mutate(func(profile *models.FertilityProfile) error {
		if profile.LastNotifiedDate != nil && *profile.LastNotifiedDate == day {
			return nil
		}
		previous = profile.LastNotifiedDate
		profile.LastNotifiedDate = &day
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return previous, claimed, nil
}

// releaseNotifiedDay undoes a claim whose notification was never delivered.
func (runtime *ProfileRuntime) releaseNotifiedDay(day string, previous *string) error {
	return runtime.mutate(func(profile *models.FertilityProfile) error {
		if profile.LastNotifiedDate == nil || *profile.LastNotifiedDate != day {
			return nil
		}
		profile.LastNotifiedDate = previous
		return nil
	})
}

// mutate applies fn to a copy under the lock and swaps it in only once the
// snapshot is saved.
func (runtime *ProfileRuntime) mutate(fn func(profile *models.FertilityProfile) error) error {
	runtime.mu.Lock()
	defer runtime.mu.Unlock()

	next := runtime.profile.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := runtime.persistLocked(next); err != nil {
		return err
	}
	runtime.profile = next
	return nil
}

func (runtime *ProfileRuntime) persistLocked(profile *models.FertilityProfile) error {
	if runtime.repo == nil {
		return nil
	}
	if err := runtime.repo.Save(profile.ID, profile.ToSnapshot()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistProfileFailed, err)
	}
	return nil
}
