// Package market talks to the market-data sidecar service that serves
// current prices for tickers. The rest of the app only sees the service
// layer's PriceOracle interface, so a different data source (a real
// exchange API, a cache) can be swapped in without touching the dashboard.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// knownAssets maps the tickers the price service covers to display names.
// Anything outside this set still works — the display name just falls back
// to the ticker itself.
var knownAssets = map[string]string{
	"AAPL":      "Apple Inc.",
	"TSLA":      "Tesla, Inc.",
	"BTC-USD":   "Bitcoin",
	"005930.KS": "Samsung Electronics",
}

// AssetName resolves a ticker to a human-readable name, falling back to
// the ticker when it isn't in the known set.
func AssetName(ticker string) string {
	if name, ok := knownAssets[strings.ToUpper(strings.TrimSpace(ticker))]; ok {
		return name
	}
	return ticker
}

// priceResponse is the sidecar's JSON shape for GET /api/market/price.
type priceResponse struct {
	Ticker      string  `json:"ticker"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	LastUpdated string  `json:"last_updated"`
}

// Client fetches current prices over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a market-data client against baseURL
// (e.g. "http://localhost:8090").
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// CurrentPrice returns the latest price for ticker. Price lookups are
// best-effort: when the sidecar is down, slow, or doesn't know the ticker,
// the asset's average buy price stands in so the dashboard still renders
// (with zero gain/loss for that holding) instead of failing the request.
func (c *Client) CurrentPrice(ctx context.Context, ticker, assetType string, avgBuyPrice float64) float64 {
	price, err := c.fetchPrice(ctx, ticker)
	if err != nil {
		c.logger.Warn("market price lookup failed, using avg buy price",
			"ticker", ticker,
			"assetType", assetType,
			"error", err,
		)
		return avgBuyPrice
	}
	return price
}

func (c *Client) fetchPrice(ctx context.Context, ticker string) (float64, error) {
	reqURL := fmt.Sprintf("%s/api/market/price?ticker=%s", c.baseURL, url.QueryEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("market: creating price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("market: fetching price for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("market: price service returned %d for %s", resp.StatusCode, ticker)
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("market: decoding price response for %s: %w", ticker, err)
	}
	if pr.Price <= 0 {
		return 0, fmt.Errorf("market: price service returned non-positive price %v for %s", pr.Price, ticker)
	}
	return pr.Price, nil
}
