package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/service/ghostfolio"
	applogger "FolioPull/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allOn = RefreshOptions{
	ShowHoldings:  true,
	ShowWatchlist: true,
	Providers:     []string{"YAHOO", "COINGECKO", "MANUAL"},
}

func newRefresher(api *fakeAPI, opts RefreshOptions) *Refresher {
	l := applogger.Nop()
	return NewRefresher(api, NewEnricher(api, l), nopMetrics{}, l, opts)
}

func portfolioAPI() *fakeAPI {
	api := newFakeAPI()
	api.accounts = models.AccountsResponse{Accounts: []models.Account{
		{ID: "a1", Name: "Broker"},
		{ID: "a2", Name: "Hidden", IsExcluded: true},
		{ID: "a3", Name: "Crypto"},
	}}
	api.performances[""] = models.Performance{"performance": map[string]any{"currentValueInBaseCurrency": 1000.0}}
	api.performances["a1"] = models.Performance{"performance": map[string]any{"currentValueInBaseCurrency": 600.0}}
	api.holdings["a1"] = []models.Holding{{Symbol: "AAPL", Quantity: 2}, {Symbol: "OLD", Quantity: 0}}
	api.watchlist = []models.WatchlistItem{{Symbol: "MSFT", DataSource: "YAHOO"}}
	api.marketData["YAHOO/MSFT"] = history(100, 100, 100, 120)
	return api
}

func TestRefreshOnline(t *testing.T) {
	api := portfolioAPI()
	snap := newRefresher(api, allOn).Refresh(context.Background())

	assert.True(t, snap.ServerOnline)
	assert.False(t, snap.UpdatedAt.IsZero())
	assert.Len(t, snap.Accounts.Accounts, 3)
	assert.Contains(t, snap.AccountPerformances, "a1")
	assert.Contains(t, snap.AccountPerformances, "a3")
	assert.Len(t, snap.AccountHoldings["a1"], 2)

	require.Len(t, snap.Watchlist, 1)
	require.NotNil(t, snap.Watchlist[0].MarketChange)
	assert.Equal(t, 20.0, *snap.Watchlist[0].MarketChange)

	require.Len(t, snap.Providers, 3)
	assert.True(t, snap.Providers["YAHOO"].IsActive)
}

func TestRefreshSkipsExcludedAccounts(t *testing.T) {
	api := portfolioAPI()
	snap := newRefresher(api, allOn).Refresh(context.Background())

	assert.False(t, api.called(ghostfolio.OpPerformance, "a2"))
	assert.False(t, api.called(ghostfolio.OpHoldings, "a2"))
	assert.NotContains(t, snap.AccountPerformances, "a2")
	assert.NotContains(t, snap.AccountHoldings, "a2")
}

func TestRefreshTopLevelFailureIsOffline(t *testing.T) {
	for _, key := range []string{"accounts:", "performance:"} {
		t.Run(key, func(t *testing.T) {
			api := portfolioAPI()
			api.errs[key] = &ghostfolio.RemoteFetchError{Op: "x", Err: errors.New("connection refused")}

			snap := newRefresher(api, allOn).Refresh(context.Background())

			assert.False(t, snap.ServerOnline)
			assert.NotNil(t, snap.Accounts.Accounts)
			assert.Empty(t, snap.Accounts.Accounts)
			assert.NotNil(t, snap.GlobalPerformance)
			assert.NotNil(t, snap.AccountPerformances)
			assert.Empty(t, snap.AccountHoldings)
			assert.NotNil(t, snap.Watchlist)
			assert.Empty(t, snap.Watchlist)
			assert.NotNil(t, snap.Providers)
			assert.Empty(t, snap.Providers)
		})
	}
}

func TestRefreshPerAccountFailureIsIsolated(t *testing.T) {
	api := portfolioAPI()
	api.errs["performance:a1"] = errors.New("boom")
	api.errs["holdings:a3"] = errors.New("boom")

	snap := newRefresher(api, allOn).Refresh(context.Background())

	assert.True(t, snap.ServerOnline)
	assert.NotContains(t, snap.AccountPerformances, "a1")
	assert.Contains(t, snap.AccountPerformances, "a3")
	assert.Contains(t, snap.AccountHoldings, "a1")
	assert.NotContains(t, snap.AccountHoldings, "a3")
}

func TestRefreshWatchlistFailureKeepsOnline(t *testing.T) {
	api := portfolioAPI()
	api.errs["watchlist:"] = errors.New("boom")

	snap := newRefresher(api, allOn).Refresh(context.Background())

	assert.True(t, snap.ServerOnline)
	assert.NotNil(t, snap.Watchlist)
	assert.Empty(t, snap.Watchlist)
}

func TestRefreshFlagsGateFetches(t *testing.T) {
	api := portfolioAPI()
	opts := RefreshOptions{Providers: []string{"YAHOO"}}

	snap := newRefresher(api, opts).Refresh(context.Background())

	assert.True(t, snap.ServerOnline)
	assert.True(t, api.called(ghostfolio.OpPerformance, "a1"), "account performance is always fetched")
	assert.False(t, api.called(ghostfolio.OpHoldings, "a1"))
	assert.False(t, api.called(ghostfolio.OpWatchlist, ""))
	assert.Contains(t, snap.AccountPerformances, "a1")
	assert.Empty(t, snap.AccountHoldings)
	assert.Empty(t, snap.Watchlist)
}

func TestRefreshProviderFailureRecordedInactive(t *testing.T) {
	api := portfolioAPI()
	api.errs["provider_health:MANUAL"] = &ghostfolio.RemoteFetchError{
		Op:         ghostfolio.OpProviderHealth,
		StatusCode: http.StatusServiceUnavailable,
		Err:        errors.New("unavailable"),
	}
	api.errs["provider_health:COINGECKO"] = errors.New("dial tcp: timeout")

	snap := newRefresher(api, allOn).Refresh(context.Background())

	assert.True(t, snap.ServerOnline)
	require.Len(t, snap.Providers, 3)
	assert.True(t, snap.Providers["YAHOO"].IsActive)
	assert.Equal(t, models.ProviderHealth{Code: "MANUAL", IsActive: false, StatusCode: 503}, snap.Providers["MANUAL"])
	assert.Equal(t, models.ProviderHealth{Code: "COINGECKO", IsActive: false, StatusCode: 0}, snap.Providers["COINGECKO"])
}
