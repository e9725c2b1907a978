package usecase

import (
	"context"
	"sync"
	"time"

	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	"FolioPull/internal/service/ghostfolio"
	applogger "FolioPull/pkg/logger"
)

// RefreshOptions are the per-entry toggles deciding what gets fetched.
type RefreshOptions struct {
	ShowHoldings  bool
	ShowWatchlist bool
	Providers     []string
}

// Refresher runs one refresh cycle against the server.
type Refresher struct {
	api      domrepo.PortfolioAPI
	enricher *Enricher
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	opts     RefreshOptions
	now      func() time.Time
}

func NewRefresher(api domrepo.PortfolioAPI, enricher *Enricher, metrics domrepo.Metrics, l *applogger.Logger, opts RefreshOptions) *Refresher {
	return &Refresher{
		api:      api,
		enricher: enricher,
		metrics:  metrics,
		logger:   l,
		opts:     opts,
		now:      time.Now,
	}
}

// Refresh never fails. When accounts or global performance cannot be
// fetched it returns the offline snapshot; every other failure only leaves
// its part of the snapshot empty.
func (r *Refresher) Refresh(ctx context.Context) models.Snapshot {
	start := time.Now()
	snap := r.refresh(ctx)
	r.metrics.RecordRefresh(snap.ServerOnline, time.Since(start).Seconds())
	return snap
}

func (r *Refresher) refresh(ctx context.Context) models.Snapshot {
	accounts, err := r.api.Accounts(ctx)
	if err != nil {
		return r.offline(ghostfolio.OpAccounts, err)
	}
	global, err := r.api.Performance(ctx, "")
	if err != nil {
		return r.offline(ghostfolio.OpPerformance, err)
	}

	snap := models.NewOfflineSnapshot()
	snap.Accounts = accounts
	if snap.Accounts.Accounts == nil {
		snap.Accounts.Accounts = []models.Account{}
	}
	snap.GlobalPerformance = global

	for _, acct := range accounts.Included() {
		perf, err := r.api.Performance(ctx, acct.ID)
		if err != nil {
			r.subFetchFailed(ghostfolio.OpPerformance, acct, err)
		} else {
			snap.AccountPerformances[acct.ID] = perf
		}

		if r.opts.ShowHoldings {
			holdings, err := r.api.Holdings(ctx, acct.ID)
			if err != nil {
				r.subFetchFailed(ghostfolio.OpHoldings, acct, err)
			} else {
				if holdings == nil {
					holdings = []models.Holding{}
				}
				snap.AccountHoldings[acct.ID] = holdings
			}
		}
	}

	if r.opts.ShowWatchlist {
		items, err := r.api.Watchlist(ctx)
		if err != nil {
			r.metrics.RecordFetchError(ghostfolio.OpWatchlist)
			r.logger.Warn("watchlist fetch failed", applogger.Error(err))
		} else {
			snap.Watchlist = r.enricher.EnrichAll(ctx, items)
		}
	}

	for _, h := range r.providerHealth(ctx) {
		snap.Providers[h.Code] = h
	}

	snap.ServerOnline = true
	snap.UpdatedAt = r.now().UTC()
	return snap
}

// providerHealth checks every configured provider concurrently. A failed
// check yields an inactive record carrying the HTTP status, or 0.
func (r *Refresher) providerHealth(ctx context.Context) []models.ProviderHealth {
	results := make([]models.ProviderHealth, len(r.opts.Providers))

	var wg sync.WaitGroup
	for i, code := range r.opts.Providers {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()

			h, err := r.api.ProviderHealth(ctx, code)
			if err != nil {
				r.metrics.RecordFetchError(ghostfolio.OpProviderHealth)
				r.logger.Debug("provider health check failed", applogger.String("provider", code), applogger.Error(err))
				h = models.ProviderHealth{Code: code, IsActive: false, StatusCode: ghostfolio.StatusCode(err)}
			}
			h.Code = code
			results[i] = h
		}(i, code)
	}
	wg.Wait()

	for _, h := range results {
		r.metrics.RecordProvider(h.Code, h.IsActive)
	}
	return results
}

func (r *Refresher) offline(op string, err error) models.Snapshot {
	r.metrics.RecordFetchError(op)
	r.logger.Warn("ghostfolio update failed", applogger.String("op", op), applogger.Error(err))
	return models.NewOfflineSnapshot()
}

func (r *Refresher) subFetchFailed(op string, acct models.Account, err error) {
	r.metrics.RecordFetchError(op)
	r.logger.Warn("account fetch failed",
		applogger.String("op", op),
		applogger.String("account", acct.Name),
		applogger.String("account_id", acct.ID),
		applogger.Error(err))
}
