// Package marketdata provides the market data collaborator: a thin client
// over a public chart API returning historical closing prices.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the chart API.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client fetches historical price series from the chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// NewClient creates a new chart API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chartResponse mirrors the chart API payload. Close values may be null for
// non-trading periods, hence the pointer slice.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchCloses returns closing prices oldest first for the given range and
// interval. Gaps (null closes) are filtered out. Upstream errors and
// malformed payloads yield an empty series, not an error, so one ticker's
// failure degrades instead of aborting the caller's batch.
func (c *Client) FetchCloses(ctx context.Context, ticker, rng, interval string) ([]float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval)
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "vantage/"+common.GetVersion())

	if c.logger != nil {
		c.logger.Debug().
			Str("ticker", ticker).
			Str("range", rng).
			Str("interval", interval).
			Msg("Chart API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.warn(ticker, "request failed", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.warn(ticker, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		c.warn(ticker, "failed to read response body", err)
		return nil, nil
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		c.warn(ticker, "failed to parse response", err)
		return nil, nil
	}

	if chart.Chart.Error != nil {
		c.warn(ticker, "chart API error: "+chart.Chart.Error.Code, nil)
		return nil, nil
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	raw := chart.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v != nil {
			closes = append(closes, *v)
		}
	}

	return closes, nil
}

func (c *Client) warn(ticker, msg string, err error) {
	if c.logger == nil {
		return
	}
	event := c.logger.Warn().Str("ticker", ticker)
	if err != nil {
		event.Err(err)
	}
	event.Msg("Chart API: " + msg)
}

var _ interfaces.MarketDataService = (*Client)(nil)
