package services

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/fertility/internal/models"
)

// ProfileRegistry owns the live profile runtimes of the process, keyed by
// profile id. It is constructed by the composing application and handed to
// whoever needs lookup.
type ProfileRegistry struct {
	mu       sync.RWMutex
	repo     ProfileSnapshotRepository
	location *time.Location
	now      func() time.Time
	runtimes map[string]*ProfileRuntime
	order    []string
}

func NewProfileRegistry(repo ProfileSnapshotRepository, location *time.Location) *ProfileRegistry {
	return newProfileRegistryWithClock(repo, location, time.Now)
}

func newProfileRegistryWithClock(repo ProfileSnapshotRepository, location *time.Location, now func() time.Time) *ProfileRegistry {
	if location == nil {
		location = time.UTC
	}
	return &ProfileRegistry{
		repo:     repo,
		location: location,
		now:      now,
		runtimes: make(map[string]*ProfileRuntime),
	}
}

// LoadAll restores every stored profile. A snapshot that fails to load is
// reported and stops the load so a corrupt store is never overwritten.
func (registry *ProfileRegistry) LoadAll() error {
	ids, err := registry.repo.ListIDs()
	if err != nil {
		return fmt.Errorf("list stored profiles: %w", err)
	}

	for _, id := range ids {
		snapshot, found, err := registry.repo.Load(id)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", id, err)
		}
		if !found {
			continue
		}
		profile, err := models.ProfileFromSnapshot(id, snapshot)
		if err != nil {
			return fmt.Errorf("restore profile %s: %w", id, err)
		}
		registry.add(newProfileRuntime(profile, registry.repo, registry.location, registry.now))
		log.Printf("profiles: loaded %s (%s) with %d cycles", id, profile.Name, len(profile.Cycles()))
	}
	return nil
}

// EnsureDefault creates and persists one profile when none is loaded.
func (registry *ProfileRegistry) EnsureDefault(name string) (*ProfileRuntime, error) {
	registry.mu.RLock()
	if len(registry.order) > 0 {
		runtime := registry.runtimes[registry.order[0]]
		registry.mu.RUnlock()
		return runtime, nil
	}
	registry.mu.RUnlock()

	return registry.Create(name)
}

func (registry *ProfileRegistry) Create(name string) (*ProfileRuntime, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.DefaultProfileName
	}
	return registry.register(uuid.NewString(), models.NewFertilityProfile("", name))
}

// Import installs snapshot under id, replacing the live profile if present.
func (registry *ProfileRegistry) Import(id string, snapshot models.ProfileSnapshot) (*ProfileRuntime, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrProfileIDRequired
	}

	if runtime, err := registry.Get(id); err == nil {
		if err := runtime.Replace(snapshot); err != nil {
			return nil, err
		}
		return runtime, nil
	}

	profile, err := models.ProfileFromSnapshot(id, snapshot)
	if err != nil {
		return nil, err
	}
	return registry.register(id, profile)
}

func (registry *ProfileRegistry) Get(id string) (*ProfileRuntime, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	runtime, ok := registry.runtimes[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return runtime, nil
}

// Resolve looks up id, or falls back to the only profile when id is empty.
func (registry *ProfileRegistry) Resolve(id string) (*ProfileRuntime, error) {
	if strings.TrimSpace(id) != "" {
		return registry.Get(id)
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	switch len(registry.order) {
	case 0:
		return nil, ErrProfileNotFound
	case 1:
		return registry.runtimes[registry.order[0]], nil
	default:
		return nil, ErrProfileIDRequired
	}
}

// Discover returns the first registered profile.
func (registry *ProfileRegistry) Discover() (*ProfileRuntime, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if len(registry.order) == 0 {
		return nil, false
	}
	return registry.runtimes[registry.order[0]], true
}

func (registry *ProfileRegistry) Runtimes() []*ProfileRuntime {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	result := make([]*ProfileRuntime, 0, len(registry.order))
	for _, id := range registry.order {
		result = append(result, registry.runtimes[id])
	}
	return result
}

func (registry *ProfileRegistry) register(id string, profile *models.FertilityProfile) (*ProfileRuntime, error) {
	profile.ID = id
	runtime := newProfileRuntime(profile, registry.repo, registry.location, registry.now)

	runtime.mu.Lock()
	err := runtime.persistLocked(runtime.profile)
	runtime.mu.Unlock()
	if err != nil {
		return nil, err
	}

	registry.add(runtime)
	return runtime, nil
}

func (registry *ProfileRegistry) add(runtime *ProfileRuntime) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	id := runtime.profile.ID
	if _, exists := registry.runtimes[id]; !exists {
		registry.order = append(registry.order, id)
	}
	registry.runtimes[id] = runtime
}
