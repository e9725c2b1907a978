package repository

import (
	"context"
	"errors"

	"FolioPull/internal/domain/models"
)

var ErrEntityNotFound = errors.New("entity not found")

// PortfolioAPI is the Ghostfolio HTTP API, one round trip per call.
type PortfolioAPI interface {
	Accounts(ctx context.Context) (models.AccountsResponse, error)
	Performance(ctx context.Context, accountID string) (models.Performance, error)
	Holdings(ctx context.Context, accountID string) ([]models.Holding, error)
	Watchlist(ctx context.Context) ([]models.WatchlistItem, error)
	MarketData(ctx context.Context, dataSource, symbol string) (models.MarketData, error)
	ProviderHealth(ctx context.Context, code string) (models.ProviderHealth, error)
}

// EntityRegistry holds the display entities registered per config entry.
type EntityRegistry interface {
	Register(ctx context.Context, entities ...models.Entity) error
	IDs(ctx context.Context, entryID string) ([]string, error)
	Get(ctx context.Context, entryID, uniqueID string) (models.Entity, error)
	List(ctx context.Context, entryID string) ([]models.Entity, error)
	Remove(ctx context.Context, entryID string, uniqueIDs ...string) error
}

// EventPublisher announces refresh and prune outcomes.
type EventPublisher interface {
	PublishSnapshot(ctx context.Context, entryID string, s models.Snapshot) error
	PublishPrune(ctx context.Context, entryID string, removed []string) error
	Close() error
}

type Metrics interface {
	RecordRefresh(online bool, seconds float64)
	RecordFetchError(op string)
	RecordProvider(code string, active bool)
	RecordEntities(n int)
	RecordPruned(n int)
	RecordLatency(op string, seconds float64)
}
