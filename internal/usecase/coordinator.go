package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/pkg/cache"
	applogger "FolioPull/pkg/logger"
)

// ErrRefreshInProgress is returned when another instance holds the refresh
// lock for the same entry.
var ErrRefreshInProgress = errors.New("refresh already in progress")

const defaultLockTTL = 2 * time.Minute

// Listener receives the full state set after every refresh or prune.
type Listener func(states []models.EntityState)

// Coordinator owns the refresh cycle of one config entry: it fetches a
// snapshot, publishes it, registers the entities it implies and fans state
// out to listeners. Refresh and Prune never run concurrently.
type Coordinator struct {
	refresher  *Refresher
	store      *SnapshotStore
	catalog    *Catalog
	registry   domrepo.EntityRegistry
	limits     *LimitService
	reconciler *Reconciler
	publisher  domrepo.EventPublisher
	locker     cache.Service
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	lockTTL    time.Duration

	mu        sync.Mutex
	lmu       sync.RWMutex
	listeners []Listener
}

func NewCoordinator(
	refresher *Refresher,
	store *SnapshotStore,
	catalog *Catalog,
	registry domrepo.EntityRegistry,
	limits *LimitService,
	reconciler *Reconciler,
	publisher domrepo.EventPublisher,
	locker cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Coordinator {
	return &Coordinator{
		refresher:  refresher,
		store:      store,
		catalog:    catalog,
		registry:   registry,
		limits:     limits,
		reconciler: reconciler,
		publisher:  publisher,
		locker:     locker,
		metrics:    metrics,
		logger:     l,
		lockTTL:    defaultLockTTL,
	}
}

// Subscribe adds a listener. Listeners are called synchronously and must not
// block.
func (c *Coordinator) Subscribe(fn Listener) {
	c.lmu.Lock()
	c.listeners = append(c.listeners, fn)
	c.lmu.Unlock()
}

// SetLockTTL overrides the ttl of the refresh lock. The lock is extended
// every third of the ttl while a cycle runs.
func (c *Coordinator) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		c.lockTTL = ttl
	}
}

func (c *Coordinator) Snapshot() models.Snapshot {
	return c.store.Load()
}

// Refresh runs one poll cycle. A failing Ghostfolio server is not an error;
// the offline snapshot is stored instead. When ctx ends during the fetch the
// previous snapshot is kept and ctx.Err() is returned.
func (c *Coordinator) Refresh(ctx context.Context) (models.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lockKey := cache.Key("refresh", c.catalog.EntryID())
	ok, err := c.locker.TryLock(ctx, lockKey, c.lockTTL)
	if err != nil {
		return c.store.Load(), fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return c.store.Load(), ErrRefreshInProgress
	}
	defer func() {
		if err := c.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			c.logger.Warn("release refresh lock", applogger.Error(err))
		}
	}()
	defer c.keepLock(ctx, lockKey)()

	snap := c.refresher.Refresh(ctx)
	if err := ctx.Err(); err != nil {
		c.logger.Debug("refresh cancelled, keeping previous snapshot", applogger.Error(err))
		return c.store.Load(), err
	}
	prev := c.store.Swap(snap)
	if prev.ServerOnline != snap.ServerOnline {
		c.logger.Info("ghostfolio server status changed", applogger.Bool("online", snap.ServerOnline))
	}

	start := time.Now()
	if err := c.registry.Register(ctx, c.catalog.Entities(snap)...); err != nil {
		return snap, fmt.Errorf("register entities: %w", err)
	}
	c.metrics.RecordLatency("register", time.Since(start).Seconds())
	if ids, err := c.registry.IDs(ctx, c.catalog.EntryID()); err == nil {
		c.metrics.RecordEntities(len(ids))
	}

	if err := c.publisher.PublishSnapshot(ctx, c.catalog.EntryID(), snap); err != nil {
		c.logger.Warn("publish snapshot event", applogger.Error(err))
	}

	c.notify(ctx, snap)
	return snap, nil
}

// keepLock extends the refresh lock until the returned stop func is called.
func (c *Coordinator) keepLock(ctx context.Context, key string) (stop func()) {
	ctx = context.WithoutCancel(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(max(c.lockTTL/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ok, err := c.locker.ExtendLock(ctx, key, c.lockTTL)
				if err != nil {
					c.logger.Warn("extend refresh lock", applogger.Error(err))
					continue
				}
				if !ok {
					c.logger.Warn("refresh lock expired before cycle finished", applogger.String("key", key))
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// Prune removes orphaned entities and their stored limits.
func (c *Coordinator) Prune(ctx context.Context) (PruneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res, err := c.reconciler.Reconcile(ctx)
	c.metrics.RecordLatency("prune", time.Since(start).Seconds())
	if err != nil || res.Skipped {
		return res, err
	}

	c.metrics.RecordPruned(res.Pruned)
	if res.Pruned == 0 {
		return res, nil
	}

	if err := c.limits.Forget(ctx, res.Removed...); err != nil {
		c.logger.Warn("forget limits of pruned entities", applogger.Error(err))
	}
	if err := c.publisher.PublishPrune(ctx, c.catalog.EntryID(), res.Removed); err != nil {
		c.logger.Warn("publish prune event", applogger.Error(err))
	}

	c.notify(ctx, c.store.Load())
	return res, nil
}

// States renders every registered entity against the current snapshot.
func (c *Coordinator) States(ctx context.Context) ([]models.EntityState, error) {
	return c.states(ctx, c.store.Load())
}

// State renders a single registered entity.
func (c *Coordinator) State(ctx context.Context, uniqueID string) (models.Entity, models.EntityState, error) {
	e, err := c.registry.Get(ctx, c.catalog.EntryID(), uniqueID)
	if err != nil {
		return models.Entity{}, models.EntityState{}, err
	}
	limits, err := c.limits.For(ctx, []models.Entity{e})
	if err != nil {
		return models.Entity{}, models.EntityState{}, err
	}
	return e, c.catalog.State(e, c.store.Load(), limits), nil
}

// Entities lists the registered entities of this entry.
func (c *Coordinator) Entities(ctx context.Context) ([]models.Entity, error) {
	return c.registry.List(ctx, c.catalog.EntryID())
}

// SetLimit stores a limit value and notifies listeners of the new state.
func (c *Coordinator) SetLimit(ctx context.Context, uniqueID string, v float64) (models.EntityState, error) {
	e, err := c.limits.Set(ctx, uniqueID, v)
	if err != nil {
		return models.EntityState{}, err
	}
	st := c.catalog.State(e, c.store.Load(), Limits{uniqueID: v})
	c.broadcast([]models.EntityState{st})
	return st, nil
}

func (c *Coordinator) states(ctx context.Context, snap models.Snapshot) ([]models.EntityState, error) {
	entities, err := c.registry.List(ctx, c.catalog.EntryID())
	if err != nil {
		return nil, err
	}
	limits, err := c.limits.For(ctx, entities)
	if err != nil {
		return nil, err
	}

	out := make([]models.EntityState, 0, len(entities))
	for _, e := range entities {
		out = append(out, c.catalog.State(e, snap, limits))
	}
	return out, nil
}

func (c *Coordinator) notify(ctx context.Context, snap models.Snapshot) {
	states, err := c.states(ctx, snap)
	if err != nil {
		c.logger.Warn("render entity states", applogger.Error(err))
		return
	}
	c.broadcast(states)
}

func (c *Coordinator) broadcast(states []models.EntityState) {
	c.lmu.RLock()
	defer c.lmu.RUnlock()
	for _, fn := range c.listeners {
		fn(states)
	}
}
