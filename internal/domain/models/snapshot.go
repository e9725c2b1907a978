package models

import "time"

// Snapshot is the consolidated result of one refresh cycle. It is replaced
// as a whole and never mutated after it has been published.
type Snapshot struct {
	ServerOnline        bool                      `json:"server_online"`
	Accounts            AccountsResponse          `json:"accounts"`
	GlobalPerformance   Performance               `json:"global_performance"`
	AccountPerformances map[string]Performance    `json:"account_performances"`
	AccountHoldings     map[string][]Holding      `json:"account_holdings"`
	Watchlist           []WatchlistItem           `json:"watchlist"`
	Providers           map[string]ProviderHealth `json:"providers"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// NewOfflineSnapshot returns the snapshot used whenever the server could not
// be reached: every collection present and empty.
func NewOfflineSnapshot() Snapshot {
	return Snapshot{
		ServerOnline:        false,
		Accounts:            AccountsResponse{Accounts: []Account{}},
		GlobalPerformance:   Performance{},
		AccountPerformances: map[string]Performance{},
		AccountHoldings:     map[string][]Holding{},
		Watchlist:           []WatchlistItem{},
		Providers:           map[string]ProviderHealth{},
	}
}

// IncludedAccounts returns the non-excluded accounts of the snapshot.
func (s Snapshot) IncludedAccounts() []Account {
	return s.Accounts.Included()
}

// ActiveHoldings returns the holdings of accountID with a positive quantity.
func (s Snapshot) ActiveHoldings(accountID string) []Holding {
	all := s.AccountHoldings[accountID]
	out := make([]Holding, 0, len(all))
	for _, h := range all {
		if h.Active() {
			out = append(out, h)
		}
	}
	return out
}
