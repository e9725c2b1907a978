package usecase

import (
	"sync/atomic"

	"FolioPull/internal/domain/models"
)

// SnapshotStore holds the current snapshot. Writers replace it as a whole;
// readers always get a complete value.
type SnapshotStore struct {
	current atomic.Pointer[models.Snapshot]
}

// NewSnapshotStore returns a store holding the offline snapshot.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	offline := models.NewOfflineSnapshot()
	s.current.Store(&offline)
	return s
}

func (s *SnapshotStore) Load() models.Snapshot {
	return *s.current.Load()
}

// Swap publishes next and returns the snapshot it replaced.
func (s *SnapshotStore) Swap(next models.Snapshot) models.Snapshot {
	return *s.current.Swap(&next)
}
