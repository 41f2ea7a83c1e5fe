package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/terraincognita07/fertility/internal/models"
)

const (
	MinLutealDays   = 8
	MaxLutealDays   = 20
	MinRecentWindow = 1
	MaxRecentWindow = 12
)

var (
	ErrInvalidProfileName  = errors.New("profile name must not be empty")
	ErrInvalidLutealDays   = errors.New("luteal days out of range")
	ErrInvalidRecentWindow = errors.New("recent window out of range")
	ErrInvalidClockTime    = errors.New("invalid time of day")
	ErrInvalidServiceName  = errors.New("invalid notify service")
	ErrInvalidEntityID     = errors.New("invalid entity id")
)

// ProfileOptions are the user-editable settings of a profile. Nil fields
// keep the stored value.
type ProfileOptions struct {
	Name              *string
	LutealDays        *int
	RecentWeight      *float64
	LongWeight        *float64
	RecentWindow      *int
	NotifyServices    []string
	TriggerEntities   []string
	DailyReminderTime *string
	QuietHoursStart   *string
	QuietHoursEnd     *string
}

// OptionsView is the full settings set of a profile.
type OptionsView struct {
	Name              string   `json:"name" yaml:"name"`
	LutealDays        int      `json:"luteal_days" yaml:"luteal_days"`
	RecentWeight      float64  `json:"recent_weight" yaml:"recent_weight"`
	LongWeight        float64  `json:"long_weight" yaml:"long_weight"`
	RecentWindow      int      `json:"recent_window" yaml:"recent_window"`
	NotifyServices    []string `json:"notify_services" yaml:"notify_services"`
	TriggerEntities   []string `json:"trigger_entities" yaml:"trigger_entities"`
	DailyReminderTime string   `json:"daily_reminder_time" yaml:"daily_reminder_time"`
	QuietHoursStart   string   `json:"quiet_hours_start" yaml:"quiet_hours_start"`
	QuietHoursEnd     string   `json:"quiet_hours_end" yaml:"quiet_hours_end"`
}

func optionsViewOf(profile *models.FertilityProfile) OptionsView {
	return OptionsView{
		Name:              profile.Name,
		LutealDays:        profile.LutealDays,
		RecentWeight:      profile.RecentWeight,
		LongWeight:        profile.LongWeight,
		RecentWindow:      profile.RecentWindow,
		NotifyServices:    append([]string{}, profile.NotifyServices...),
		TriggerEntities:   append([]string{}, profile.TriggerEntities...),
		DailyReminderTime: profile.DailyReminderTime,
		QuietHoursStart:   profile.QuietHoursStart,
		QuietHoursEnd:     profile.QuietHoursEnd,
	}
}

// applyOptions validates every provided field before touching the profile,
// so a rejected update leaves it unchanged. Weights are clamped rather than
// rejected.
func applyOptions(profile *models.FertilityProfile, options ProfileOptions) error {
	next := optionsViewOf(profile)

	if options.Name != nil {
		name := strings.TrimSpace(*options.Name)
		if name == "" {
			return ErrInvalidProfileName
		}
		next.Name = name
	}
	if options.LutealDays != nil {
		if *options.LutealDays < MinLutealDays || *options.LutealDays > MaxLutealDays {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidLutealDays, *options.LutealDays, MinLutealDays, MaxLutealDays)
		}
		next.LutealDays = *options.LutealDays
	}
	if options.RecentWeight != nil {
		next.RecentWeight = clampUnit(*options.RecentWeight)
	}
	if options.LongWeight != nil {
		next.LongWeight = clampUnit(*options.LongWeight)
	}
	if options.RecentWindow != nil {
		if *options.RecentWindow < MinRecentWindow || *options.RecentWindow > MaxRecentWindow {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidRecentWindow, *options.RecentWindow, MinRecentWindow, MaxRecentWindow)
		}
		next.RecentWindow = *options.RecentWindow
	}

	clocks := []struct {
		raw    *string
		target *string
	}{
		{options.DailyReminderTime, &next.DailyReminderTime},
		{options.QuietHoursStart, &next.QuietHoursStart},
		{options.QuietHoursEnd, &next.QuietHoursEnd},
	}
	for _, clock := range clocks {
		if clock.raw == nil {
			continue
		}
		normalized, err := NormalizeClock(*clock.raw)
		if err != nil {
			return err
		}
		*clock.target = normalized
	}

	if options.NotifyServices != nil {
		services, err := normalizeList(options.NotifyServices, ErrInvalidServiceName, func(value string) bool {
			return !strings.ContainsAny(value, " \t")
		})
		if err != nil {
			return err
		}
		next.NotifyServices = services
	}
	if options.TriggerEntities != nil {
		entities, err := normalizeList(options.TriggerEntities, ErrInvalidEntityID, func(value string) bool {
			domain, object, ok := strings.Cut(value, ".")
			return ok && domain != "" && object != ""
		})
		if err != nil {
			return err
		}
		next.TriggerEntities = entities
	}

	profile.Name = next.Name
	profile.LutealDays = next.LutealDays
	profile.RecentWeight = next.RecentWeight
	profile.LongWeight = next.LongWeight
	profile.RecentWindow = next.RecentWindow
	profile.NotifyServices = next.NotifyServices
	profile.TriggerEntities = next.TriggerEntities
	profile.DailyReminderTime = next.DailyReminderTime
	profile.QuietHoursStart = next.QuietHoursStart
	profile.QuietHoursEnd = next.QuietHoursEnd
	return nil
}

// ParseClock reads "HH:MM:SS" or "HH:MM" and returns seconds since midnight.
func ParseClock(raw string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	limits := []int{23, 59, 59}
	values := []int{0, 0, 0}
	for index, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 || value > limits[index] {
			return 0, false
		}
		values[index] = value
	}
	return values[0]*3600 + values[1]*60 + values[2], true
}

func NormalizeClock(raw string) (string, error) {
	seconds, ok := ParseClock(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidClockTime, raw)
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60), nil
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func normalizeList(values []string, invalid error, valid func(string) bool) ([]string, error) {
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if !valid(value) {
			return nil, fmt.Errorf("%w: %q", invalid, value)
		}
		if _, duplicate := seen[value]; duplicate {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result, nil
}
