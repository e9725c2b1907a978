package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"FolioPull/internal/domain/identity"
	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/pkg/cache"
)

var (
	ErrNotLimitEntity = errors.New("entity is not an adjustable limit")
	ErrInvalidLimit   = errors.New("limit must be a finite value >= 0")
)

// LimitService stores the low/high values of limit entities in the cache
// layer. Values have no expiry.
type LimitService struct {
	cache    cache.Service
	registry domrepo.EntityRegistry
	entryID  string
}

func NewLimitService(c cache.Service, registry domrepo.EntityRegistry, entryID string) *LimitService {
	return &LimitService{cache: c, registry: registry, entryID: entryID}
}

// Set stores v for the registered limit entity uniqueID.
func (s *LimitService) Set(ctx context.Context, uniqueID string, v float64) (models.Entity, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Entity{}, ErrInvalidLimit
	}

	e, err := s.registry.Get(ctx, s.entryID, uniqueID)
	if err != nil {
		return models.Entity{}, err
	}
	if !identity.Kind(e.Kind).IsLimit() {
		return models.Entity{}, fmt.Errorf("%w: %s", ErrNotLimitEntity, uniqueID)
	}

	if err := s.cache.Set(ctx, s.key(uniqueID), v, 0); err != nil {
		return models.Entity{}, fmt.Errorf("store limit: %w", err)
	}
	return e, nil
}

// Get returns the stored value, with ok=false when none is set.
func (s *LimitService) Get(ctx context.Context, uniqueID string) (float64, bool, error) {
	var v float64
	err := s.cache.Get(ctx, s.key(uniqueID), &v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// For returns the stored values of every limit entity in entities.
func (s *LimitService) For(ctx context.Context, entities []models.Entity) (Limits, error) {
	out := Limits{}
	for _, e := range entities {
		if !identity.Kind(e.Kind).IsLimit() {
			continue
		}
		v, ok, err := s.Get(ctx, e.UniqueID)
		if err != nil {
			return nil, err
		}
		if ok {
			out[e.UniqueID] = v
		}
	}
	return out, nil
}

// Forget drops stored values, used when limit entities are pruned.
func (s *LimitService) Forget(ctx context.Context, uniqueIDs ...string) error {
	if len(uniqueIDs) == 0 {
		return nil
	}
	keys := make([]string, len(uniqueIDs))
	for i, id := range uniqueIDs {
		keys[i] = s.key(id)
	}
	return s.cache.Delete(ctx, keys...)
}

func (s *LimitService) key(uniqueID string) string {
	return cache.Key("limits", s.entryID, uniqueID)
}
