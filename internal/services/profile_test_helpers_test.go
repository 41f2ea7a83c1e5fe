package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/fertility/internal/i18n"
	"github.com/terraincognita07/fertility/internal/models"
)

type memoryProfileRepository struct {
	mu        sync.Mutex
	snapshots map[string]models.ProfileSnapshot
	order     []string
	saves     int
	saveErr   error
}

func newMemoryProfileRepository() *memoryProfileRepository {
	return &memoryProfileRepository{snapshots: make(map[string]models.ProfileSnapshot)}
}

func (repo *memoryProfileRepository) Save(profileID string, snapshot models.ProfileSnapshot) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.saveErr != nil {
		return repo.saveErr
	}
	if _, exists := repo.snapshots[profileID]; !exists {
		repo.order = append(repo.order, profileID)
	}
	repo.snapshots[profileID] = snapshot
	repo.saves++
	return nil
}

func (repo *memoryProfileRepository) Load(profileID string) (models.ProfileSnapshot, bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	snapshot, ok := repo.snapshots[profileID]
	return snapshot, ok, nil
}

func (repo *memoryProfileRepository) ListIDs() ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return append([]string{}, repo.order...), nil
}

func (repo *memoryProfileRepository) saveCount() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.saves
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Set(now time.Time) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = now
}

type recordingSender struct {
	mu       sync.Mutex
	messages []Notification
	err      error
	delay    time.Duration
}

func (sender *recordingSender) Send(_ context.Context, title string, message string) error {
	if sender.delay > 0 {
		time.Sleep(sender.delay)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if sender.err != nil {
		return sender.err
	}
	sender.messages = append(sender.messages, Notification{Title: title, Message: message})
	return nil
}

func (sender *recordingSender) setErr(err error) {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.err = err
}

func (sender *recordingSender) sent() []Notification {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return append([]Notification{}, sender.messages...)
}

var errSaveRejected = errors.New("disk full")

func newRuntimeForTest(t *testing.T, clock *fakeClock, starts ...string) (*ProfileRuntime, *memoryProfileRepository) {
	t.Helper()

	repo := newMemoryProfileRepository()
	registry := newProfileRegistryWithClock(repo, time.UTC, clock.Now)
	runtime, err := registry.Create("Home")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	for _, start := range starts {
		if _, err := runtime.AddPeriod(mustParseDay(t, start), nil, nil); err != nil {
			t.Fatalf("add period %s: %v", start, err)
		}
	}
	return runtime, repo
}

func mustTranslator(t *testing.T) *i18n.Manager {
	t.Helper()

	manager, err := i18n.NewEmbeddedManager("en")
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	return manager
}

func mustParseInstant(t *testing.T, raw string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("parse instant %q: %v", raw, err)
	}
	return parsed
}

func cycleStarts(cycles []models.CycleRecord) []string {
	starts := make([]string, 0, len(cycles))
	for _, cycle := range cycles {
		starts = append(starts, cycle.Start.Format("2006-01-02"))
	}
	return starts
}

func stringRef(value string) *string {
	return &value
}
