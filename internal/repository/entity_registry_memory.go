package repository

import (
	"context"
	"sort"
	"sync"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
)

// MemoryEntityRegistry keeps registered entities in process.
type MemoryEntityRegistry struct {
	mu      sync.RWMutex
	entries map[string]map[string]models.Entity
}

func NewMemoryEntityRegistry() *MemoryEntityRegistry {
	return &MemoryEntityRegistry{entries: make(map[string]map[string]models.Entity)}
}

var _ repository.EntityRegistry = (*MemoryEntityRegistry)(nil)

func (r *MemoryEntityRegistry) Register(_ context.Context, entities ...models.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entities {
		m, ok := r.entries[e.EntryID]
		if !ok {
			m = make(map[string]models.Entity)
			r.entries[e.EntryID] = m
		}
		m[e.UniqueID] = e
	}
	return nil
}

func (r *MemoryEntityRegistry) IDs(_ context.Context, entryID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries[entryID]))
	for id := range r.entries[entryID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MemoryEntityRegistry) Get(_ context.Context, entryID, uniqueID string) (models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[entryID][uniqueID]
	if !ok {
		return models.Entity{}, repository.ErrEntityNotFound
	}
	return e, nil
}

func (r *MemoryEntityRegistry) List(_ context.Context, entryID string) ([]models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Entity, 0, len(r.entries[entryID]))
	for _, e := range r.entries[entryID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out, nil
}

func (r *MemoryEntityRegistry) Remove(_ context.Context, entryID string, uniqueIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range uniqueIDs {
		delete(r.entries[entryID], id)
	}
	return nil
}
