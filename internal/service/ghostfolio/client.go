package ghostfolio

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"FolioPull/internal/domain/models"
	drepo "FolioPull/internal/domain/repository"
	pkghttp "FolioPull/pkg/http"
	applogger "FolioPull/pkg/logger"
)

const (
	OpAuth           = "auth"
	OpAccounts       = "accounts"
	OpPerformance    = "performance"
	OpHoldings       = "holdings"
	OpWatchlist      = "watchlist"
	OpMarketData     = "market_data"
	OpProviderHealth = "provider_health"
)

// Config holds the connection settings for one Ghostfolio server.
type Config struct {
	BaseURL     string
	AccessToken string
	VerifySSL   bool
	Timeout     time.Duration
}

// Client implements repository.PortfolioAPI against the Ghostfolio REST API.
// The access token is exchanged for a bearer JWT on first use; the JWT is
// dropped again when the server answers 401.
type Client struct {
	http        *pkghttp.Client
	baseURL     string
	accessToken string
	logger      *applogger.Logger

	mu  sync.Mutex
	jwt string
}

var _ drepo.PortfolioAPI = (*Client)(nil)

// New creates a client. Extra options are passed to the HTTP client.
func New(cfg Config, l *applogger.Logger, opts ...pkghttp.ClientOption) *Client {
	httpOpts := append([]pkghttp.ClientOption{
		pkghttp.WithTimeout(cfg.Timeout),
		pkghttp.WithVerifySSL(cfg.VerifySSL),
	}, opts...)

	return &Client{
		http:        pkghttp.NewClient(httpOpts...),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		logger:      l,
	}
}

func (c *Client) Accounts(ctx context.Context) (models.AccountsResponse, error) {
	var out models.AccountsResponse
	if _, err := c.get(ctx, OpAccounts, "/api/v1/account", nil, &out); err != nil {
		return models.AccountsResponse{}, err
	}
	if out.Accounts == nil {
		out.Accounts = []models.Account{}
	}
	return out, nil
}

// Performance returns the max-range performance of the whole portfolio, or of
// one account when accountID is set.
func (c *Client) Performance(ctx context.Context, accountID string) (models.Performance, error) {
	q := map[string][]string{"range": {"max"}}
	if accountID != "" {
		q["accounts"] = []string{accountID}
	}

	out := models.Performance{}
	if _, err := c.get(ctx, OpPerformance, "/api/v2/portfolio/performance", q, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = models.Performance{}
	}
	return out, nil
}

func (c *Client) Holdings(ctx context.Context, accountID string) ([]models.Holding, error) {
	q := map[string][]string{"accounts": {accountID}}

	var out struct {
		Holdings []models.Holding `json:"holdings"`
	}
	if _, err := c.get(ctx, OpHoldings, "/api/v1/portfolio/holdings", q, &out); err != nil {
		return nil, err
	}
	if out.Holdings == nil {
		return []models.Holding{}, nil
	}
	return out.Holdings, nil
}

func (c *Client) Watchlist(ctx context.Context) ([]models.WatchlistItem, error) {
	var body []byte
	status, err := c.get(ctx, OpWatchlist, "/api/v1/watchlist", nil, &body)
	if err != nil {
		return nil, err
	}

	items, err := decodeWatchlist(body)
	if err != nil {
		return nil, wrap(OpWatchlist, status, err)
	}
	return items, nil
}

// MarketData returns the price history of one symbol sorted by date
// ascending, latest last.
func (c *Client) MarketData(ctx context.Context, dataSource, symbol string) (models.MarketData, error) {
	path := "/api/v1/market-data/" + url.PathEscape(dataSource) + "/" + url.PathEscape(symbol)

	var out models.MarketData
	if _, err := c.get(ctx, OpMarketData, path, nil, &out); err != nil {
		return models.MarketData{}, err
	}
	if out.MarketData == nil {
		out.MarketData = []models.MarketDataPoint{}
	}
	sortHistory(out.MarketData)
	return out, nil
}

// ProviderHealth reports a provider as active when the health endpoint
// answers 2xx. Any other outcome is an error.
func (c *Client) ProviderHealth(ctx context.Context, code string) (models.ProviderHealth, error) {
	path := "/api/v1/health/data-provider/" + url.PathEscape(code)

	status, err := c.get(ctx, OpProviderHealth, path, nil, nil)
	if err != nil {
		return models.ProviderHealth{}, err
	}
	return models.ProviderHealth{Code: code, IsActive: true, StatusCode: status}, nil
}

func (c *Client) get(ctx context.Context, op, path string, query map[string][]string, dest interface{}) (int, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return StatusCode(err), err
	}

	start := time.Now()
	status, err := c.http.SendAndParseStatus(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
		Headers:     map[string]string{"Authorization": "Bearer " + token},
	}, dest)

	c.logger.Debug("ghostfolio request",
		applogger.String("op", op),
		applogger.String("path", path),
		applogger.Int("status", status),
		applogger.Duration("latency", time.Since(start)))

	if err != nil {
		if status == http.StatusUnauthorized {
			c.resetToken()
		}
		return status, wrap(op, status, err)
	}
	return status, nil
}

// bearer returns the cached JWT, authenticating first when there is none.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jwt != "" {
		return c.jwt, nil
	}

	var out struct {
		AuthToken string `json:"authToken"`
	}
	status, err := c.http.SendAndParseStatus(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.baseURL + "/api/v1/auth/anonymous",
		Body:   map[string]string{"accessToken": c.accessToken},
	}, &out)
	if err != nil {
		return "", wrap(OpAuth, status, err)
	}
	if out.AuthToken == "" {
		return "", wrap(OpAuth, status, errors.New("empty auth token"))
	}

	c.jwt = out.AuthToken
	return c.jwt, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.jwt = ""
	c.mu.Unlock()
}
