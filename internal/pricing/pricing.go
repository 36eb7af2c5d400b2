package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const simplePricePath = "/simple/price"

// sample is one cached price observation.
type sample struct {
	Rate      decimal.Decimal
	FetchedAt time.Time
}

// Options parameterise the price client.
type Options struct {
	BaseURL   string
	CoinID    string
	Currency  string
	CacheTTL  time.Duration
	Timeout   time.Duration
	UserAgent string
}

// Client fetches a USD rate from the CoinGecko simple price endpoint, with a
// short in-process cache. One attempt per invocation, no retry.
type Client struct {
	opts    Options
	client  *http.Client
	logger  zerolog.Logger
	baseURL string

	cache sample
	now   func() time.Time
}

// New constructs a price client.
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CoinID == "" {
		opts.CoinID = "wrapped-quil"
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &Client{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "pricing").Logger(),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// Fetch returns the current rate, serving from cache while it is fresh. On
// HTTP or decode failure it returns the last cached rate (zero if none)
// together with the error, so callers can warn and carry on degraded.
func (c *Client) Fetch(ctx context.Context) (decimal.Decimal, error) {
	if !c.cache.FetchedAt.IsZero() && c.now().Sub(c.cache.FetchedAt) < c.opts.CacheTTL {
		return c.cache.Rate, nil
	}

	rate, err := c.fetchRemote(ctx)
	if err != nil {
		return c.cache.Rate, err
	}

	c.cache = sample{Rate: rate, FetchedAt: c.now()}
	return rate, nil
}

func (c *Client) fetchRemote(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s%s?ids=%s&vs_currencies=%s", c.baseURL, simplePricePath, c.opts.CoinID, c.opts.Currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read price response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price api status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	// {"wrapped-quil":{"usd":0.0123}}
	var body map[string]map[string]json.Number
	if err := json.Unmarshal(payload, &body); err != nil {
		return decimal.Zero, fmt.Errorf("decode price response: %w", err)
	}

	raw, ok := body[c.opts.CoinID][c.opts.Currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("price response missing %s.%s", c.opts.CoinID, c.opts.Currency)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price value: %w", err)
	}

	c.logger.Debug().Str("coin", c.opts.CoinID).Str("rate", rate.String()).Msg("price fetched")
	return rate, nil
}
