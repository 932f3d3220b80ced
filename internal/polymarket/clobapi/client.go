// Package clobapi fetches sampled price history from the Polymarket CLOB API.
package clobapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"debatefloor/internal/config"
	"debatefloor/internal/metrics"
)

// Known intervals with their conventional fidelity (sample spacing in
// minutes).
const (
	Interval24h = "1d"
	Interval7d  = "7d"
	Interval30d = "30d"
	IntervalMax = "max"

	Fidelity24h = 15
	Fidelity7d  = 60
	Fidelity30d = 240
	FidelityMax = 1440
)

// PricePoint is one (timestamp, price) sample. Price is on the 0-1 scale;
// callers scale onto 0-100 on ingestion.
type PricePoint struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
}

type historyResponse struct {
	History []PricePoint `json:"history"`
}

// Client handles communication with the Polymarket CLOB API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new CLOB API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.CLOBAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.CLOBAPIRPS), 1),
	}
}

// GetPriceHistory fetches sampled price history for one outcome token.
// tokenID is the CLOB token id of the outcome (the first market token tracks
// YES). The result is ordered oldest to newest and may be empty.
func (c *Client) GetPriceHistory(ctx context.Context, tokenID, interval string, fidelity int) (points []PricePoint, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest("clob", "prices_history", time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("market", tokenID)
	q.Set("interval", interval)
	q.Set("fidelity", strconv.Itoa(fidelity))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/prices-history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}

	var history historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}

	return history.History, nil
}
