package usecase

import (
	"testing"

	"FolioPull/internal/domain/identity"
	"FolioPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog(CatalogOptions{
		EntryID:       "e1",
		BaseCurrency:  "USD",
		ShowTotals:    true,
		ShowAccounts:  true,
		ShowHoldings:  true,
		ShowWatchlist: true,
		Providers:     []string{"YAHOO", "MANUAL"},
	})
}

func onlineSnapshot() models.Snapshot {
	s := models.NewOfflineSnapshot()
	s.ServerOnline = true
	s.Accounts = models.AccountsResponse{Accounts: []models.Account{
		{ID: "a1", Name: "Broker", Currency: "EUR", ValueInBaseCurrency: 700},
		{ID: "a2", Name: "Hidden", IsExcluded: true},
	}}
	s.GlobalPerformance = models.Performance{"performance": map[string]any{
		"currentValueInBaseCurrency": 1234.5,
		"totalInvestment":            1000.0,
		"netPerformance":             234.5,
		"netPerformancePercentage":   0.2345,
	}}
	s.AccountPerformances["a1"] = models.Performance{"performance": map[string]any{"currentValueInBaseCurrency": 650.0}}
	s.AccountHoldings["a1"] = []models.Holding{
		{Symbol: "AAPL", Quantity: 2, MarketPrice: 150, Currency: "USD", ValueInBaseCurrency: 300},
		{Symbol: "SOLD", Quantity: 0},
	}
	s.AccountHoldings["a2"] = []models.Holding{{Symbol: "HIDE", Quantity: 1}}
	s.Watchlist = []models.WatchlistItem{{Symbol: "MSFT", DataSource: "YAHOO", Currency: "USD", MarketPrice: ptr(420.0), MarketChange: ptr(4.2)}}
	s.Providers["YAHOO"] = models.ProviderHealth{Code: "YAHOO", IsActive: true, StatusCode: 200}
	s.Providers["MANUAL"] = models.ProviderHealth{Code: "MANUAL", IsActive: false, StatusCode: 503}
	return s
}

func ids(entities []models.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.UniqueID)
	}
	return out
}

func TestCatalogEntities(t *testing.T) {
	got := ids(testCatalog().Entities(onlineSnapshot()))

	assert.ElementsMatch(t, []string{
		"ghostfolio_server_status_e1",
		"ghostfolio_provider_yahoo_e1",
		"ghostfolio_provider_manual_e1",
		"ghostfolio_prune_button_e1",
		"ghostfolio_total_value_e1",
		"ghostfolio_total_investment_e1",
		"ghostfolio_total_performance_e1",
		"ghostfolio_account_value_a1_e1",
		"ghostfolio_account_investment_a1_e1",
		"ghostfolio_account_performance_a1_e1",
		"ghostfolio_holding_value_a1_aapl_e1",
		"ghostfolio_holding_low_limit_a1_aapl_e1",
		"ghostfolio_holding_high_limit_a1_aapl_e1",
		"ghostfolio_watchlist_price_msft_e1",
		"ghostfolio_watchlist_low_limit_msft_e1",
		"ghostfolio_watchlist_high_limit_msft_e1",
	}, got)
}

func TestCatalogExcludesInactiveAndExcluded(t *testing.T) {
	expected := testCatalog().ExpectedIDs(onlineSnapshot())

	for id := range expected {
		assert.NotContains(t, id, "sold")
		assert.NotContains(t, id, "a2")
		assert.NotContains(t, id, "hide")
	}
}

func TestCatalogFlags(t *testing.T) {
	c := NewCatalog(CatalogOptions{EntryID: "e1", Providers: []string{"YAHOO"}})
	got := ids(c.Entities(onlineSnapshot()))

	assert.ElementsMatch(t, []string{
		"ghostfolio_server_status_e1",
		"ghostfolio_provider_yahoo_e1",
		"ghostfolio_prune_button_e1",
	}, got)
}

func TestCatalogDeduplicatesSlugCollisions(t *testing.T) {
	s := onlineSnapshot()
	s.Watchlist = append(s.Watchlist, models.WatchlistItem{Symbol: " msft "})

	entities := testCatalog().Entities(s)
	seen := map[string]bool{}
	for _, e := range entities {
		assert.False(t, seen[e.UniqueID], "duplicate %s", e.UniqueID)
		seen[e.UniqueID] = true
	}
}

func TestCatalogSkipsWatchlistWithoutSymbol(t *testing.T) {
	s := onlineSnapshot()
	before := len(testCatalog().Entities(s))
	s.Watchlist = append(s.Watchlist, models.WatchlistItem{DataSource: "YAHOO"})

	assert.Len(t, testCatalog().Entities(s), before)
}

func entityByKind(t *testing.T, c *Catalog, s models.Snapshot, kind identity.Kind) models.Entity {
	t.Helper()
	for _, e := range c.Entities(s) {
		if e.Kind == string(kind) {
			return e
		}
	}
	t.Fatalf("no entity of kind %s", kind)
	return models.Entity{}
}

func TestCatalogStateTotals(t *testing.T) {
	c := testCatalog()
	s := onlineSnapshot()

	st := c.State(entityByKind(t, c, s, identity.KindTotalValue), s, nil)
	assert.Equal(t, 1234.5, st.State)
	assert.Equal(t, "USD", st.Unit)
	assert.Equal(t, "$1,234.50", st.Attributes["display"])

	st = c.State(entityByKind(t, c, s, identity.KindTotalPerformance), s, nil)
	assert.Equal(t, 234.5, st.State)
	assert.InDelta(t, 23.45, st.Attributes["net_performance_percentage"], 1e-9)

	st = c.State(entityByKind(t, c, s, identity.KindAccountValue), s, nil)
	assert.Equal(t, 650.0, st.State)
	assert.Equal(t, "EUR", st.Attributes["account_currency"])
}

func TestCatalogStateProviders(t *testing.T) {
	c := testCatalog()
	s := onlineSnapshot()

	for _, e := range c.Entities(s) {
		if e.Provider != "MANUAL" {
			continue
		}
		st := c.State(e, s, nil)
		assert.Equal(t, false, st.State)
		assert.Equal(t, 503, st.Attributes["status_code"])
		assert.Equal(t, "MANUAL", st.Attributes["provider_code"])
		assert.Equal(t, "Manual Status", e.Name)
		return
	}
	t.Fatal("manual provider entity missing")
}

func TestCatalogStateLimits(t *testing.T) {
	c := testCatalog()
	s := onlineSnapshot()
	low := entityByKind(t, c, s, identity.KindHoldingLowLimit)
	high := entityByKind(t, c, s, identity.KindWatchlistHighLimit)

	st := c.State(low, s, nil)
	assert.Nil(t, st.State)
	assert.Equal(t, false, st.Attributes["breached"])

	limits := Limits{low.UniqueID: 160, high.UniqueID: 400}
	st = c.State(low, s, limits)
	assert.Equal(t, 160.0, st.State)
	assert.Equal(t, true, st.Attributes["breached"])

	st = c.State(high, s, limits)
	assert.Equal(t, 400.0, st.State)
	assert.Equal(t, true, st.Attributes["breached"])
	assert.Equal(t, "$400.00", st.Attributes["display"])
}

func TestCatalogStateOffline(t *testing.T) {
	c := testCatalog()
	online := onlineSnapshot()
	offline := models.NewOfflineSnapshot()

	for _, e := range c.Entities(online) {
		st := c.State(e, offline, nil)
		assert.True(t, st.Available, e.UniqueID)
		if e.Kind == string(identity.KindServerStatus) {
			assert.Equal(t, false, st.State)
			continue
		}
		assert.Nil(t, st.State, e.UniqueID)
	}

	require.NotEmpty(t, c.Entities(offline))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", formatMoney(1234.5, "usd"))
	assert.Equal(t, "12.30 XYZ", formatMoney(12.3, "XYZ"))
	assert.Equal(t, "7.00", formatMoney(7, ""))
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "Yahoo", providerName("YAHOO"))
	assert.Equal(t, "Rapid Api", providerName("RAPID_API"))
}
