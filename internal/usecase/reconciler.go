package usecase

import (
	"context"
	"fmt"

	domrepo "FolioPull/internal/domain/repository"
	applogger "FolioPull/pkg/logger"
)

// ReasonServerOffline is reported when pruning is skipped because the
// cached snapshot does not describe the full portfolio.
const ReasonServerOffline = "server offline: snapshot cannot describe existing entities"

// PruneResult describes one reconciliation pass.
type PruneResult struct {
	Pruned  int      `json:"pruned"`
	Removed []string `json:"removed"`
	Skipped bool     `json:"skipped"`
	Reason  string   `json:"reason,omitempty"`
}

// Reconciler removes registered entities the current snapshot no longer
// justifies. It never recreates entities.
type Reconciler struct {
	store    *SnapshotStore
	catalog  *Catalog
	registry domrepo.EntityRegistry
	logger   *applogger.Logger
}

func NewReconciler(store *SnapshotStore, catalog *Catalog, registry domrepo.EntityRegistry, l *applogger.Logger) *Reconciler {
	return &Reconciler{store: store, catalog: catalog, registry: registry, logger: l}
}

func (r *Reconciler) Reconcile(ctx context.Context) (PruneResult, error) {
	snap := r.store.Load()
	if !snap.ServerOnline {
		r.logger.Warn("prune skipped", applogger.String("reason", ReasonServerOffline))
		return PruneResult{Skipped: true, Reason: ReasonServerOffline, Removed: []string{}}, nil
	}

	expected := r.catalog.ExpectedIDs(snap)
	entryID := r.catalog.EntryID()

	actual, err := r.registry.IDs(ctx, entryID)
	if err != nil {
		return PruneResult{}, fmt.Errorf("list registered entities: %w", err)
	}

	orphans := make([]string, 0)
	for _, id := range actual {
		if _, ok := expected[id]; !ok {
			orphans = append(orphans, id)
		}
	}

	if len(orphans) > 0 {
		if err := r.registry.Remove(ctx, entryID, orphans...); err != nil {
			return PruneResult{}, fmt.Errorf("remove orphaned entities: %w", err)
		}
		for _, id := range orphans {
			r.logger.Info("removed orphaned entity", applogger.String("unique_id", id))
		}
	}

	r.logger.Info("prune finished", applogger.Int("pruned", len(orphans)), applogger.String("entry", entryID))
	return PruneResult{Pruned: len(orphans), Removed: orphans}, nil
}
