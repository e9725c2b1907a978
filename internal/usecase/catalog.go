package usecase

import (
	"encoding/json"
	"strings"

	"FolioPull/internal/domain/identity"
	"FolioPull/internal/domain/models"

	"github.com/PaesslerAG/jsonpath"
)

// JSONPath expressions read from performance records.
const (
	pathCurrentValue          = "$.performance.currentValueInBaseCurrency"
	pathCurrentNetWorth       = "$.performance.currentNetWorth"
	pathTotalInvestment       = "$.performance.totalInvestment"
	pathNetPerformance        = "$.performance.netPerformance"
	pathNetPerformancePercent = "$.performance.netPerformancePercentage"
)

// CatalogOptions describe one config entry.
type CatalogOptions struct {
	EntryID       string
	PortfolioName string
	BaseCurrency  string
	ShowTotals    bool
	ShowAccounts  bool
	ShowHoldings  bool
	ShowWatchlist bool
	Providers     []string
}

// Limits maps limit entity ids to their configured value.
type Limits map[string]float64

// Catalog decides which entities a snapshot justifies and what they show.
// Registration and orphan reconciliation both use Entities.
type Catalog struct {
	opts   CatalogOptions
	device string
}

func NewCatalog(opts CatalogOptions) *Catalog {
	if opts.PortfolioName == "" {
		opts.PortfolioName = "Ghostfolio"
	}
	return &Catalog{opts: opts, device: opts.PortfolioName + " Portfolio"}
}

func (c *Catalog) EntryID() string { return c.opts.EntryID }

// Entities lists every entity that should exist for s, without duplicates.
func (c *Catalog) Entities(s models.Snapshot) []models.Entity {
	b := &entityBuilder{catalog: c, seen: map[string]struct{}{}}

	b.add(identity.KindServerStatus, identity.Key{}, models.PlatformBinarySensor, "Server", models.CategoryDiagnostic)
	for _, code := range c.opts.Providers {
		b.add(identity.KindProviderStatus, identity.Key{Provider: code}, models.PlatformBinarySensor, providerName(code)+" Status", models.CategoryDiagnostic)
	}
	b.add(identity.KindPruneButton, identity.Key{}, models.PlatformButton, "Prune Orphans", models.CategoryDiagnostic)

	if c.opts.ShowTotals {
		b.add(identity.KindTotalValue, identity.Key{}, models.PlatformSensor, "Total Value", "")
		b.add(identity.KindTotalInvestment, identity.Key{}, models.PlatformSensor, "Total Investment", "")
		b.add(identity.KindTotalPerformance, identity.Key{}, models.PlatformSensor, "Total Performance", "")
	}

	accounts := s.IncludedAccounts()
	if c.opts.ShowAccounts {
		for _, a := range accounts {
			key := identity.Key{AccountID: a.ID}
			b.add(identity.KindAccountValue, key, models.PlatformSensor, a.Name+" Value", "")
			b.add(identity.KindAccountInvestment, key, models.PlatformSensor, a.Name+" Investment", "")
			b.add(identity.KindAccountPerformance, key, models.PlatformSensor, a.Name+" Performance", "")
		}
	}

	if c.opts.ShowHoldings {
		for _, a := range accounts {
			for _, h := range s.ActiveHoldings(a.ID) {
				key := identity.Key{AccountID: a.ID, Symbol: h.Symbol}
				label := a.Name + " " + h.Symbol
				b.add(identity.KindHoldingValue, key, models.PlatformSensor, label+" Value", "")
				b.add(identity.KindHoldingLowLimit, key, models.PlatformNumber, label+" Low Limit", "")
				b.add(identity.KindHoldingHighLimit, key, models.PlatformNumber, label+" High Limit", "")
			}
		}
	}

	if c.opts.ShowWatchlist {
		for _, w := range s.Watchlist {
			key := identity.Key{Symbol: w.Symbol}
			b.add(identity.KindWatchlistPrice, key, models.PlatformSensor, w.Symbol+" Price", "")
			b.add(identity.KindWatchlistLowLimit, key, models.PlatformNumber, w.Symbol+" Low Limit", "")
			b.add(identity.KindWatchlistHighLimit, key, models.PlatformNumber, w.Symbol+" High Limit", "")
		}
	}

	return b.out
}

// ExpectedIDs returns the ids of Entities(s) as a set.
func (c *Catalog) ExpectedIDs(s models.Snapshot) map[string]struct{} {
	entities := c.Entities(s)
	ids := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		ids[e.UniqueID] = struct{}{}
	}
	return ids
}

type entityBuilder struct {
	catalog *Catalog
	seen    map[string]struct{}
	out     []models.Entity
}

func (b *entityBuilder) add(kind identity.Kind, key identity.Key, platform models.Platform, name, category string) {
	id, err := identity.UniqueID(kind, key, b.catalog.opts.EntryID)
	if err != nil {
		return
	}
	if _, dup := b.seen[id]; dup {
		return
	}
	b.seen[id] = struct{}{}

	b.out = append(b.out, models.Entity{
		UniqueID:  id,
		EntryID:   b.catalog.opts.EntryID,
		Platform:  platform,
		Kind:      string(kind),
		Name:      name,
		Device:    b.catalog.device,
		Category:  category,
		AccountID: key.AccountID,
		Symbol:    key.Symbol,
		Provider:  key.Provider,
	})
}

// State derives what e displays from s. Data-backed entities report an
// unknown (nil) state while the server is offline.
func (c *Catalog) State(e models.Entity, s models.Snapshot, limits Limits) models.EntityState {
	st := models.EntityState{UniqueID: e.UniqueID, Available: true, Attributes: map[string]any{}}

	kind := identity.Kind(e.Kind)
	switch kind {
	case identity.KindServerStatus:
		st.State = s.ServerOnline
		return st
	case identity.KindPruneButton:
		return st
	}

	if !s.ServerOnline {
		return st
	}

	switch kind {
	case identity.KindProviderStatus:
		c.providerState(&st, e, s)
	case identity.KindTotalValue, identity.KindTotalInvestment, identity.KindTotalPerformance:
		c.performanceState(&st, kind, s.GlobalPerformance, c.opts.BaseCurrency)
	case identity.KindAccountValue, identity.KindAccountInvestment, identity.KindAccountPerformance:
		c.accountState(&st, kind, e, s)
	case identity.KindHoldingValue:
		if h, ok := findHolding(s, e.AccountID, e.Symbol); ok {
			setMoney(&st, h.ValueInBaseCurrency, c.opts.BaseCurrency)
			st.Attributes["quantity"] = h.Quantity
			st.Attributes["market_price"] = h.MarketPrice
			st.Attributes["currency"] = h.Currency
			st.Attributes["name"] = h.Name
			st.Attributes["investment"] = h.Investment
			st.Attributes["net_performance"] = h.NetPerformance
			st.Attributes["net_performance_percent"] = h.NetPerformancePercent
		}
	case identity.KindWatchlistPrice:
		if w, ok := findWatchlist(s, e.Symbol); ok && w.MarketPrice != nil {
			setMoney(&st, *w.MarketPrice, w.Currency)
			st.Attributes["market_date"] = w.MarketDate
			st.Attributes["data_source"] = w.DataSource
			st.Attributes["asset_class"] = w.AssetClass
			if w.MarketChange != nil {
				st.Attributes["market_change"] = *w.MarketChange
			}
			if w.MarketChangePercentage != nil {
				st.Attributes["market_change_percentage"] = *w.MarketChangePercentage
			}
		}
	case identity.KindHoldingLowLimit, identity.KindHoldingHighLimit:
		price, currency, ok := 0.0, "", false
		if h, found := findHolding(s, e.AccountID, e.Symbol); found {
			price, currency, ok = h.MarketPrice, h.Currency, true
		}
		limitState(&st, kind, limits, price, currency, ok)
	case identity.KindWatchlistLowLimit, identity.KindWatchlistHighLimit:
		price, currency, ok := 0.0, "", false
		if w, found := findWatchlist(s, e.Symbol); found && w.MarketPrice != nil {
			price, currency, ok = *w.MarketPrice, w.Currency, true
		}
		limitState(&st, kind, limits, price, currency, ok)
	}
	return st
}

func (c *Catalog) providerState(st *models.EntityState, e models.Entity, s models.Snapshot) {
	st.Attributes["provider_code"] = e.Provider
	h, ok := s.Providers[e.Provider]
	if !ok {
		return
	}
	st.State = h.IsActive
	st.Attributes["status_code"] = h.StatusCode
}

func (c *Catalog) accountState(st *models.EntityState, kind identity.Kind, e models.Entity, s models.Snapshot) {
	var acct models.Account
	for _, a := range s.Accounts.Accounts {
		if a.ID == e.AccountID {
			acct = a
			break
		}
	}

	currency := c.opts.BaseCurrency
	if perf, ok := s.AccountPerformances[e.AccountID]; ok {
		c.performanceState(st, kind, perf, currency)
	} else if kind == identity.KindAccountValue && acct.ID != "" {
		setMoney(st, acct.ValueInBaseCurrency, currency)
	}
	if acct.ID != "" {
		st.Attributes["account_currency"] = acct.Currency
		st.Attributes["balance"] = acct.Balance
	}
}

func (c *Catalog) performanceState(st *models.EntityState, kind identity.Kind, perf models.Performance, currency string) {
	switch kind {
	case identity.KindTotalValue, identity.KindAccountValue:
		if v, ok := lookupFloat(perf, pathCurrentValue); ok {
			setMoney(st, v, currency)
		} else if v, ok := lookupFloat(perf, pathCurrentNetWorth); ok {
			setMoney(st, v, currency)
		}
	case identity.KindTotalInvestment, identity.KindAccountInvestment:
		if v, ok := lookupFloat(perf, pathTotalInvestment); ok {
			setMoney(st, v, currency)
		}
	case identity.KindTotalPerformance, identity.KindAccountPerformance:
		if v, ok := lookupFloat(perf, pathNetPerformance); ok {
			setMoney(st, v, currency)
		}
		if pct, ok := lookupFloat(perf, pathNetPerformancePercent); ok {
			st.Attributes["net_performance_percentage"] = pct * 100
		}
	}
}

func limitState(st *models.EntityState, kind identity.Kind, limits Limits, price float64, currency string, havePrice bool) {
	st.Unit = currency
	v, ok := limits[st.UniqueID]
	if !ok {
		st.Attributes["breached"] = false
		return
	}

	st.State = v
	breached := false
	if havePrice && price > 0 {
		switch kind {
		case identity.KindHoldingLowLimit, identity.KindWatchlistLowLimit:
			breached = price < v
		default:
			breached = price > v
		}
	}
	st.Attributes["breached"] = breached
	if havePrice {
		st.Attributes["market_price"] = price
	}
	if currency != "" {
		st.Attributes["display"] = formatMoney(v, currency)
	}
}

func setMoney(st *models.EntityState, v float64, currency string) {
	st.State = v
	st.Unit = currency
	st.Attributes["display"] = formatMoney(v, currency)
}

func findHolding(s models.Snapshot, accountID, symbol string) (models.Holding, bool) {
	for _, h := range s.AccountHoldings[accountID] {
		if h.Symbol == symbol && h.Active() {
			return h, true
		}
	}
	return models.Holding{}, false
}

func findWatchlist(s models.Snapshot, symbol string) (models.WatchlistItem, bool) {
	for _, w := range s.Watchlist {
		if w.Symbol == symbol {
			return w, true
		}
	}
	return models.WatchlistItem{}, false
}

// lookupFloat evaluates a JSONPath expression against perf and returns the
// first numeric result.
func lookupFloat(perf models.Performance, path string) (float64, bool) {
	if len(perf) == 0 {
		return 0, false
	}
	v, err := jsonpath.Get(path, map[string]any(perf))
	if err != nil {
		return 0, false
	}
	// jsonpath returns a list for wildcard and slice expressions
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return 0, false
		}
		v = list[0]
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// providerName turns "COINGECKO" into "Coingecko" and "RAPID_API" into
// "Rapid Api".
func providerName(code string) string {
	words := strings.Fields(strings.ReplaceAll(code, "_", " "))
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
