package usecase

import (
	"context"
	"errors"
	"sync"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/service/ghostfolio"
)

// fakeAPI is an in-memory PortfolioAPI. Errors are keyed by "<op>:<arg>".
type fakeAPI struct {
	mu           sync.Mutex
	calls        []string
	accounts     models.AccountsResponse
	performances map[string]models.Performance
	holdings     map[string][]models.Holding
	watchlist    []models.WatchlistItem
	marketData   map[string]models.MarketData
	errs         map[string]error

	// gate, when set, blocks Accounts until it is closed.
	gate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		accounts:     models.AccountsResponse{Accounts: []models.Account{}},
		performances: map[string]models.Performance{},
		holdings:     map[string][]models.Holding{},
		marketData:   map[string]models.MarketData{},
		errs:         map[string]error{},
	}
}

func (f *fakeAPI) record(op, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := op + ":" + arg
	f.calls = append(f.calls, key)
	return f.errs[key]
}

func (f *fakeAPI) called(op, arg string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == op+":"+arg {
			return true
		}
	}
	return false
}

func (f *fakeAPI) Accounts(context.Context) (models.AccountsResponse, error) {
	if f.gate != nil {
		<-f.gate
	}
	if err := f.record(ghostfolio.OpAccounts, ""); err != nil {
		return models.AccountsResponse{}, err
	}
	return f.accounts, nil
}

func (f *fakeAPI) Performance(_ context.Context, accountID string) (models.Performance, error) {
	if err := f.record(ghostfolio.OpPerformance, accountID); err != nil {
		return nil, err
	}
	if p, ok := f.performances[accountID]; ok {
		return p, nil
	}
	return models.Performance{}, nil
}

func (f *fakeAPI) Holdings(_ context.Context, accountID string) ([]models.Holding, error) {
	if err := f.record(ghostfolio.OpHoldings, accountID); err != nil {
		return nil, err
	}
	return f.holdings[accountID], nil
}

func (f *fakeAPI) Watchlist(context.Context) ([]models.WatchlistItem, error) {
	if err := f.record(ghostfolio.OpWatchlist, ""); err != nil {
		return nil, err
	}
	return append([]models.WatchlistItem{}, f.watchlist...), nil
}

func (f *fakeAPI) MarketData(_ context.Context, dataSource, symbol string) (models.MarketData, error) {
	key := dataSource + "/" + symbol
	if err := f.record(ghostfolio.OpMarketData, key); err != nil {
		return models.MarketData{}, err
	}
	md, ok := f.marketData[key]
	if !ok {
		return models.MarketData{}, errors.New("not found")
	}
	return md, nil
}

func (f *fakeAPI) ProviderHealth(_ context.Context, code string) (models.ProviderHealth, error) {
	if err := f.record(ghostfolio.OpProviderHealth, code); err != nil {
		return models.ProviderHealth{}, err
	}
	return models.ProviderHealth{Code: code, IsActive: true, StatusCode: 200}, nil
}

// nopMetrics satisfies repository.Metrics.
type nopMetrics struct{}

func (nopMetrics) RecordRefresh(bool, float64)   {}
func (nopMetrics) RecordFetchError(string)       {}
func (nopMetrics) RecordProvider(string, bool)   {}
func (nopMetrics) RecordEntities(int)            {}
func (nopMetrics) RecordPruned(int)              {}
func (nopMetrics) RecordLatency(string, float64) {}
