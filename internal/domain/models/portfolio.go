package models

// Account is a Ghostfolio account as returned by GET /api/v1/account.
type Account struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	IsExcluded          bool    `json:"isExcluded"`
	Currency            string  `json:"currency"`
	Balance             float64 `json:"balance"`
	ValueInBaseCurrency float64 `json:"valueInBaseCurrency"`
	PlatformID          string  `json:"platformId,omitempty"`
}

// AccountsResponse is the account list plus the totals the server reports.
type AccountsResponse struct {
	Accounts                   []Account `json:"accounts"`
	TotalBalanceInBaseCurrency float64   `json:"totalBalanceInBaseCurrency"`
	TotalValueInBaseCurrency   float64   `json:"totalValueInBaseCurrency"`
	TransactionCount           int       `json:"transactionCount"`
}

// Included returns the accounts that take part in per-account operations.
func (r AccountsResponse) Included() []Account {
	out := make([]Account, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		if a.IsExcluded || a.ID == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Holding is one position inside an account.
type Holding struct {
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Quantity              float64 `json:"quantity"`
	Currency              string  `json:"currency"`
	DataSource            string  `json:"dataSource"`
	AssetClass            string  `json:"assetClass"`
	MarketPrice           float64 `json:"marketPrice"`
	ValueInBaseCurrency   float64 `json:"valueInBaseCurrency"`
	Investment            float64 `json:"investment"`
	NetPerformance        float64 `json:"netPerformance"`
	NetPerformancePercent float64 `json:"netPerformancePercent"`
}

// Active reports whether the holding gets display entities.
func (h Holding) Active() bool {
	return h.Quantity > 0
}

// Performance is the opaque performance record computed by the server.
type Performance map[string]any

// WatchlistItem is a watched symbol, enriched from its market data.
type WatchlistItem struct {
	Symbol                 string   `json:"symbol"`
	DataSource             string   `json:"dataSource"`
	Name                   string   `json:"name,omitempty"`
	Currency               string   `json:"currency,omitempty"`
	AssetClass             string   `json:"assetClass,omitempty"`
	MarketPrice            *float64 `json:"marketPrice,omitempty"`
	MarketDate             string   `json:"marketDate,omitempty"`
	MarketChange           *float64 `json:"marketChange,omitempty"`
	MarketChangePercentage *float64 `json:"marketChangePercentage,omitempty"`
}

// MarketDataPoint is one dated price. A nil price counts as 0.
type MarketDataPoint struct {
	Date        string   `json:"date"`
	MarketPrice *float64 `json:"marketPrice"`
}

// Price returns the point's price or 0 when it is missing.
func (p MarketDataPoint) Price() float64 {
	if p.MarketPrice == nil {
		return 0
	}
	return *p.MarketPrice
}

type AssetProfile struct {
	Currency   string `json:"currency"`
	AssetClass string `json:"assetClass"`
	Name       string `json:"name,omitempty"`
}

// MarketData is the history for one symbol, ordered by date ascending.
type MarketData struct {
	MarketData   []MarketDataPoint `json:"marketData"`
	AssetProfile AssetProfile      `json:"assetProfile"`
}

// ProviderHealth is the reachability of one market data provider.
type ProviderHealth struct {
	Code       string `json:"code"`
	IsActive   bool   `json:"is_active"`
	StatusCode int    `json:"status_code"`
}
