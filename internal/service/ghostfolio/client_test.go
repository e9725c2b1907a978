package ghostfolio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	applogger "FolioPull/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	logins atomic.Int32
	routes map[string]http.HandlerFunc
}

func newFakeServer(t *testing.T, routes map[string]http.HandlerFunc) *fakeServer {
	t.Helper()
	fs := &fakeServer{routes: routes}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/anonymous", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AccessToken string `json:"accessToken"`
		}
		if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&body) != nil || body.AccessToken != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fs.logins.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"authToken": "jwt-1"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h, ok := fs.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(url string) *Client {
	return New(Config{BaseURL: url + "/", AccessToken: "secret", VerifySSL: true, Timeout: 5 * time.Second}, applogger.Nop())
}

func TestAccounts(t *testing.T) {
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/account": jsonBody(`{"accounts":[{"id":"a1","name":"Broker","isExcluded":false,"balance":10.5},{"id":"a2","name":"Old","isExcluded":true}],"totalValueInBaseCurrency":1234.5}`),
	})
	c := newTestClient(srv.URL)

	got, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)
	assert.Equal(t, "Broker", got.Accounts[0].Name)
	assert.True(t, got.Accounts[1].IsExcluded)
	assert.Equal(t, 1234.5, got.TotalValueInBaseCurrency)
	assert.Len(t, got.Included(), 1)

	_, err = c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.logins.Load(), "jwt is cached between calls")
}

func TestPerformanceQuery(t *testing.T) {
	var seen []string
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v2/portfolio/performance": func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, r.URL.RawQuery)
			jsonBody(`{"performance":{"currentValueInBaseCurrency":1500,"totalInvestment":1000}}`)(w, r)
		},
	})
	c := newTestClient(srv.URL)

	perf, err := c.Performance(context.Background(), "")
	require.NoError(t, err)
	inner, ok := perf["performance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1500.0, inner["currentValueInBaseCurrency"])

	_, err = c.Performance(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"range=max", "accounts=a1&range=max"}, seen)
}

func TestHoldingsMissingKey(t *testing.T) {
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/portfolio/holdings": jsonBody(`{}`),
	})
	c := newTestClient(srv.URL)

	got, err := c.Holdings(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWatchlistShapes(t *testing.T) {
	tests := map[string]string{
		"bare list":       `[{"symbol":"AAPL","dataSource":"YAHOO"}]`,
		"watchlist key":   `{"watchlist":[{"symbol":"AAPL","dataSource":"YAHOO"}]}`,
		"items key":       `{"items":[{"symbol":"AAPL","dataSource":"YAHOO"}]}`,
		"empty watchlist": `{"watchlist":[],"items":[{"symbol":"AAPL","dataSource":"YAHOO"}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newFakeServer(t, map[string]http.HandlerFunc{"/api/v1/watchlist": jsonBody(body)})
			got, err := newTestClient(srv.URL).Watchlist(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "AAPL", got[0].Symbol)
		})
	}

	srv := newFakeServer(t, map[string]http.HandlerFunc{"/api/v1/watchlist": jsonBody(`{}`)})
	got, err := newTestClient(srv.URL).Watchlist(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWatchlistKeepsEntriesWithoutSymbol(t *testing.T) {
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/watchlist": jsonBody(`[{"symbol":"AAPL","dataSource":"YAHOO"},{"dataSource":"YAHOO"}]`),
	})
	got, err := newTestClient(srv.URL).Watchlist(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Empty(t, got[1].Symbol)
	assert.Equal(t, "YAHOO", got[1].DataSource)
}

func TestMarketDataSortedAscending(t *testing.T) {
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/market-data/YAHOO/BTC-USD": jsonBody(`{
			"marketData":[
				{"date":"2024-01-03T00:00:00.000Z","marketPrice":120},
				{"date":"2024-01-01T00:00:00.000Z","marketPrice":100},
				{"date":"2024-01-02T00:00:00.000Z","marketPrice":null}
			],
			"assetProfile":{"currency":"USD","assetClass":"LIQUIDITY"}
		}`),
	})
	c := newTestClient(srv.URL)

	md, err := c.MarketData(context.Background(), "YAHOO", "BTC-USD")
	require.NoError(t, err)
	require.Len(t, md.MarketData, 3)
	assert.Equal(t, 100.0, md.MarketData[0].Price())
	assert.Equal(t, 0.0, md.MarketData[1].Price())
	assert.Equal(t, 120.0, md.MarketData[2].Price())
	assert.Equal(t, "USD", md.AssetProfile.Currency)
}

func TestProviderHealth(t *testing.T) {
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/health/data-provider/YAHOO": jsonBody(`{"status":"OK"}`),
		"/api/v1/health/data-provider/MANUAL": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})
	c := newTestClient(srv.URL)

	h, err := c.ProviderHealth(context.Background(), "YAHOO")
	require.NoError(t, err)
	assert.Equal(t, "YAHOO", h.Code)
	assert.True(t, h.IsActive)
	assert.Equal(t, http.StatusOK, h.StatusCode)

	_, err = c.ProviderHealth(context.Background(), "MANUAL")
	var rfe *RemoteFetchError
	require.True(t, errors.As(err, &rfe))
	assert.Equal(t, OpProviderHealth, rfe.Op)
	assert.Equal(t, http.StatusServiceUnavailable, rfe.StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
}

func TestUnauthorizedDropsToken(t *testing.T) {
	var reject atomic.Bool
	srv := newFakeServer(t, map[string]http.HandlerFunc{
		"/api/v1/account": func(w http.ResponseWriter, r *http.Request) {
			if reject.Load() {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			jsonBody(`{"accounts":[]}`)(w, r)
		},
	})
	c := newTestClient(srv.URL)

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)

	reject.Store(true)
	_, err = c.Accounts(context.Background())
	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.True(t, rfe.Unauthorized())
	assert.Equal(t, int32(1), srv.logins.Load(), "failing call is not retried")

	reject.Store(false)
	_, err = c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.logins.Load())
}

func TestBadAccessToken(t *testing.T) {
	srv := newFakeServer(t, nil)
	c := New(Config{BaseURL: srv.URL, AccessToken: "wrong"}, applogger.Nop())

	_, err := c.Accounts(context.Background())
	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, OpAuth, rfe.Op)
	assert.Equal(t, http.StatusForbidden, rfe.StatusCode)
}

func TestTransportFailureHasZeroStatus(t *testing.T) {
	srv := newFakeServer(t, nil)
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Watchlist(context.Background())
	var rfe *RemoteFetchError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, 0, rfe.StatusCode)
}
