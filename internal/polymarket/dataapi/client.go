package dataapi

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

// Client handles communication with the Polymarket Data API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	authMode     config.AuthMode
	bearerToken  string
	apiKey       string
	extraHeaders map[string]string
	limiter      *rate.Limiter
}

// NewClient creates a new Data API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      cfg.DataAPIBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authMode:     cfg.DataAPIAuthMode,
		bearerToken:  cfg.DataAPIBearerToken,
		apiKey:       cfg.DataAPIAPIKey,
		extraHeaders: cfg.DataAPIExtraHeaders,
		limiter:      rate.NewLimiter(rate.Limit(cfg.DataAPIRPS), 1),
	}
}

// TradeParams holds parameters for the GetTrades call
type TradeParams struct {
	Limit        int
	Offset       int
	TakerOnly    bool
	FilterType   string  // CASH
	FilterAmount float64 // minimum USD notional
	Market       string  // slug
	EventID      string
	User         string
	Side         string // BUY, SELL
}

// GetTrades fetches trades matching params, newest first
func (c *Client) GetTrades(ctx context.Context, params TradeParams) ([]Trade, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.TakerOnly {
		q.Set("takerOnly", "true")
	}
	if params.FilterType != "" {
		q.Set("filterType", params.FilterType)
	}
	if params.FilterAmount > 0 {
		q.Set("filterAmount", strconv.FormatFloat(params.FilterAmount, 'f', 2, 64))
	}
	if params.Market != "" {
		q.Set("market", params.Market)
	}
	if params.EventID != "" {
		q.Set("eventId", params.EventID)
	}
	if params.User != "" {
		q.Set("user", params.User)
	}
	if params.Side != "" {
		q.Set("side", params.Side)
	}

	body, err := c.get(ctx, "/trades", q, "trades")
	if err != nil {
		return nil, err
	}

	// The API responds with a bare array
	var trades []Trade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("decode trades response: %w", err)
	}

	return trades, nil
}

// GetHolders fetches the top holders of each outcome token for a market,
// keyed by condition id
func (c *Client) GetHolders(ctx context.Context, conditionID string, limit int) ([]TokenHolders, error) {
	q := url.Values{}
	q.Set("market", conditionID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/holders", q, "holders")
	if err != nil {
		return nil, err
	}

	var holders []TokenHolders
	if err := json.Unmarshal(body, &holders); err != nil {
		return nil, fmt.Errorf("decode holders response: %w", err)
	}

	return holders, nil
}

// GetPositions fetches a wallet's open positions across all markets
func (c *Client) GetPositions(ctx context.Context, wallet string, limit int) ([]Position, error) {
	q := url.Values{}
	q.Set("user", wallet)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/positions", q, "positions")
	if err != nil {
		return nil, err
	}

	var positions []Position
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("decode positions response: %w", err)
	}

	return positions, nil
}

// GetWalletFirstActivity fetches the earliest activity for a wallet
func (c *Client) GetWalletFirstActivity(ctx context.Context, wallet string) (*ActivityEvent, error) {
	q := url.Values{}
	q.Set("user", wallet)
	q.Set("sortBy", "timestamp")
	q.Set("sortDirection", "ASC")
	q.Set("limit", "1")

	body, err := c.get(ctx, "/activity", q, "activity")
	if err != nil {
		return nil, err
	}

	var activities []ActivityEvent
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("decode activity response: %w", err)
	}

	if len(activities) == 0 {
		return nil, fmt.Errorf("no activity found for wallet %s", wallet)
	}

	return &activities[0], nil
}

// get performs a rate-limited GET against the Data API and returns the raw
// response body. endpoint labels the request in metrics.
func (c *Client) get(ctx context.Context, path string, query url.Values, endpoint string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest("data", endpoint, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("401 Unauthorized (auth_mode=%s) - check credentials", c.authMode)
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	switch c.authMode {
	case config.AuthModeBearer:
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	case config.AuthModeAPIKey:
		req.Header.Set("X-API-KEY", c.apiKey)
	case config.AuthModeNone:
		// No auth headers
	}

	// Add extra headers
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
}
