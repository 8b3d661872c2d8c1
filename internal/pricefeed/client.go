// Package pricefeed is the HTTP client for spot quotes and OHLC bars.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/chainsignal/internal/chain"
	"github.com/dgnsrekt/chainsignal/internal/indicators"
)

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

type QuoteResponse struct {
	Ticker string   `json:"ticker"`
	Spot   float64  `json:"spot"`
	Spread *float64 `json:"spread"`
}

type BarResponse struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func NewClient(baseURL, apiKey string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Quote returns the current spot and spread of ticker.
func (c *HTTPClient) Quote(ctx context.Context, ticker string) (*chain.Quote, error) {
	var resp QuoteResponse
	if err := c.getJSON(ctx, "/v1/quote/"+url.PathEscape(ticker), &resp); err != nil {
		return nil, err
	}
	if resp.Ticker == "" {
		resp.Ticker = ticker
	}
	return &chain.Quote{Ticker: resp.Ticker, Spot: resp.Spot, Spread: resp.Spread}, nil
}

// Bars returns up to n bars for ticker, oldest first.
func (c *HTTPClient) Bars(ctx context.Context, ticker string, n int) ([]indicators.Bar, error) {
	path := "/v1/bars/" + url.PathEscape(ticker) + "?limit=" + strconv.Itoa(n)

	var resp []BarResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	bars := make([]indicators.Bar, 0, len(resp))
	for _, b := range resp {
		bars = append(bars, indicators.Bar{
			Timestamp: time.Unix(b.Timestamp, 0).UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("bars for %s are not chronological at %d", ticker, i)
		}
	}
	return bars, nil
}

// getJSON performs a rate-limited GET with exponential backoff on 429 and
// 5xx responses and decodes the body into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	c.logger.Debug("requesting", zap.String("url", endpoint))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Basic "+c.apiKey)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
