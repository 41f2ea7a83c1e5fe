package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/fertility/internal/models"
)

const (
	defaultNotifyDomain       = "notify"
	defaultNotifyPollInterval = time.Minute
	periodPromptToleranceDays = 1
)

const (
	TriggerStateHome = "home"
	TriggerStateOn   = "on"
)

type Translator interface {
	Translate(language string, key string) string
	Translatef(language string, key string, args ...any) string
}

// Sender delivers one notification through a single notify service.
type Sender interface {
	Send(ctx context.Context, title string, message string) error
}

type Notification struct {
	Title   string
	Message string
}

type NotificationConfig struct {
	Language     string
	PollInterval time.Duration
	// Senders are keyed by "domain.service", e.g. "notify.telegram".
	Senders map[string]Sender
}

type NotificationService struct {
	registry      *ProfileRegistry
	translator    Translator
	language      string
	interval      time.Duration
	senders       map[string]Sender
	mu            sync.Mutex
	sentReminders map[string]string
}

func NewNotificationService(registry *ProfileRegistry, translator Translator, config NotificationConfig) *NotificationService {
	interval := config.PollInterval
	if interval <= 0 {
		interval = defaultNotifyPollInterval
	}

	senders := make(map[string]Sender, len(config.Senders))
	for name, sender := range config.Senders {
		senders[NormalizeNotifyService(name)] = sender
	}

	return &NotificationService{
		registry:      registry,
		translator:    translator,
		language:      config.Language,
		interval:      interval,
		senders:       senders,
		sentReminders: make(map[string]string),
	}
}

func (service *NotificationService) Start(ctx context.Context) {
	ticker := time.NewTicker(service.interval)
	go func() {
		defer ticker.Stop()

		service.run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.run(ctx)
			}
		}
	}()
}

func (service *NotificationService) run(ctx context.Context) {
	for _, runtime := range service.registry.Runtimes() {
		if !service.reminderDue(runtime) {
			continue
		}
		if _, err := service.SendPeriodPrompt(ctx, runtime); err != nil {
			log.Printf("notifications: period prompt failed for %s: %v", runtime.ID(), err)
		}
	}
}

// reminderDue reports true once per local day, at or after the profile's
// daily reminder time.
func (service *NotificationService) reminderDue(runtime *ProfileRuntime) bool {
	view := runtime.notificationView()
	now := runtime.Now()

	reminderAt, ok := ParseClock(view.dailyReminderTime)
	if !ok {
		reminderAt, _ = ParseClock(models.DefaultDailyReminderTime)
	}
	if sinceLocalMidnight(now) < time.Duration(reminderAt)*time.Second {
		return false
	}

	today := now.Format(models.SnapshotDateLayout)
	id := runtime.ID()

	service.mu.Lock()
	defer service.mu.Unlock()
	if service.sentReminders[id] == today {
		return false
	}
	service.sentReminders[id] = today
	return true
}

// SendPeriodPrompt asks for confirmation when a period is expected around
// today but nothing logged covers today.
func (service *NotificationService) SendPeriodPrompt(ctx context.Context, runtime *ProfileRuntime) (bool, error) {
	view := runtime.notificationView()
	notification, ok := service.periodPrompt(view, runtime.Now())
	if !ok {
		return false, nil
	}
	return true, service.dispatch(ctx, view.notifyServices, notification)
}

func (service *NotificationService) periodPrompt(view notificationView, now time.Time) (Notification, bool) {
	metrics := BuildMetrics(view.cycles, view.settings, now)
	if metrics.NextPeriodDate.IsZero() {
		return Notification{}, false
	}

	distance := daysBetween(metrics.Date, metrics.NextPeriodDate)
	if distance < -periodPromptToleranceDays || distance > periodPromptToleranceDays {
		return Notification{}, false
	}
	for _, cycle := range view.cycles {
		if cycle.Covers(metrics.Date) {
			return Notification{}, false
		}
	}

	return Notification{
		Title:   service.translator.Translatef(service.language, "notify.period_check.title", view.name),
		Message: service.translator.Translatef(service.language, "notify.period_check.message", metrics.NextPeriodDate.Format(models.SnapshotDateLayout)),
	}, true
}

// NotifyTodayRisk sends today's risk once per day outside quiet hours and
// records the day on the profile. The day is claimed before sending, so
// concurrent triggers notify once; a failed send releases the claim.
func (service *NotificationService) NotifyTodayRisk(ctx context.Context, runtime *ProfileRuntime, reason string) (bool, error) {
	view := runtime.notificationView()
	now := runtime.Now()

	if InQuietHours(now, view.quietHoursStart, view.quietHoursEnd) {
		return false, nil
	}

	metrics := BuildMetrics(view.cycles, view.settings, now)
	if metrics.RiskReason == RiskReasonNone {
		return false, nil
	}

	today := now.Format(models.SnapshotDateLayout)
	previous, claimed, err := runtime.claimNotifiedDay(today)
	if err != nil || !claimed {
		return false, err
	}

	notification := Notification{
		Title: service.translator.Translatef(service.language, "notify.risk.title", view.name),
		Message: service.translator.Translatef(
			service.language,
			"notify.risk.message",
			service.translator.Translate(service.language, "risk."+string(metrics.RiskReason)),
			reason,
			service.cycleDayText(metrics),
			service.dateText(metrics.PredictedOvulationDate),
		),
	}
	if err := service.dispatch(ctx, view.notifyServices, notification); err != nil {
		if releaseErr := runtime.releaseNotifiedDay(today, previous); releaseErr != nil {
			log.Printf("notifications: release notified day failed for %s: %v", runtime.ID(), releaseErr)
		}
		return false, err
	}
	return true, nil
}

// HandleTrigger reacts to a state change of a watched entity: a
// device_tracker arriving home or a binary_sensor turning on. It returns how
// many profiles were notified.
func (service *NotificationService) HandleTrigger(ctx context.Context, entityID string, state string) (int, error) {
	entityID = strings.TrimSpace(entityID)
	domain, _, _ := strings.Cut(entityID, ".")

	var reasonKey string
	switch {
	case domain == "device_tracker" && state == TriggerStateHome:
		reasonKey = "notify.trigger.home"
	case domain == "binary_sensor" && state == TriggerStateOn:
		reasonKey = "notify.trigger.on"
	default:
		return 0, nil
	}
	reason := service.translator.Translatef(service.language, reasonKey, entityID)

	notified := 0
	var errs []error
	for _, runtime := range service.registry.Runtimes() {
		if !containsString(runtime.notificationView().triggerEntities, entityID) {
			continue
		}
		sent, err := service.NotifyTodayRisk(ctx, runtime, reason)
		if err != nil {
			errs = append(errs, fmt.Errorf("profile %s: %w", runtime.ID(), err))
		}
		if sent {
			notified++
		}
	}
	return notified, errors.Join(errs...)
}

func (service *NotificationService) dispatch(ctx context.Context, services []string, notification Notification) error {
	var errs []error
	for _, name := range services {
		key := NormalizeNotifyService(name)
		sender, ok := service.senders[key]
		if !ok {
			log.Printf("notifications: unknown notify service %s", key)
			continue
		}
		if err := sender.Send(ctx, notification.Title, notification.Message); err != nil {
			log.Printf("notifications: send via %s failed: %v", key, err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (service *NotificationService) cycleDayText(metrics Metrics) string {
	if metrics.CycleDay == nil {
		return service.translator.Translate(service.language, "notify.value.unknown")
	}
	return strconv.Itoa(*metrics.CycleDay)
}

func (service *NotificationService) dateText(value time.Time) string {
	if value.IsZero() {
		return service.translator.Translate(service.language, "notify.value.unknown")
	}
	return value.Format(models.SnapshotDateLayout)
}

// NormalizeNotifyService turns "telegram" into "notify.telegram". Anything
// that is not exactly "domain.service" is treated as a bare notify service.
func NormalizeNotifyService(name string) string {
	name = strings.TrimSpace(name)
	parts := strings.Split(name, ".")
	if len(parts) == 2 {
		return name
	}
	return defaultNotifyDomain + "." + name
}

// InQuietHours reports whether now falls inside [start, end] on the local
// clock. A start later than end spans midnight. Unparsable bounds disable
// quiet hours.
func InQuietHours(now time.Time, start string, end string) bool {
	startSeconds, okStart := ParseClock(start)
	endSeconds, okEnd := ParseClock(end)
	if !okStart || !okEnd {
		return false
	}

	current := sinceLocalMidnight(now)
	from := time.Duration(startSeconds) * time.Second
	to := time.Duration(endSeconds) * time.Second
	if from <= to {
		return current >= from && current <= to
	}
	return current >= from || current <= to
}

func sinceLocalMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	return now.Sub(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
