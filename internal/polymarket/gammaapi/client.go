package gammaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"debatefloor/internal/config"
	"debatefloor/internal/metrics"
)

// pageSize is the batch size used when paginating the markets listing.
const pageSize = 100

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.GammaAPIRPS), 1),
		log:        log,
	}
}

// MarketParams holds query parameters for the markets listing
type MarketParams struct {
	Limit     int
	Offset    int
	Active    bool
	Closed    bool
	Order     string // e.g. volume24hr
	Ascending bool
}

// GetMarkets fetches one page of markets ordered per params
func (c *Client) GetMarkets(ctx context.Context, params MarketParams) ([]Market, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(params.Limit))
	q.Set("offset", strconv.Itoa(params.Offset))
	q.Set("active", strconv.FormatBool(params.Active))
	q.Set("closed", strconv.FormatBool(params.Closed))
	if params.Order != "" {
		q.Set("order", params.Order)
	}
	q.Set("ascending", strconv.FormatBool(params.Ascending))

	body, err := c.get(ctx, "/markets", q, "markets")
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decode markets response: %w", err)
	}

	return markets, nil
}

// GetMarketByConditionID fetches market details by condition ID
func (c *Client) GetMarketByConditionID(ctx context.Context, conditionID string) (*Market, error) {
	q := url.Values{}
	q.Set("condition_ids", conditionID)

	body, err := c.get(ctx, "/markets", q, "markets")
	if err != nil {
		return nil, err
	}

	// Response can be either array or single market
	var markets []Market
	if err := json.Unmarshal(body, &markets); err == nil {
		if len(markets) > 0 {
			return &markets[0], nil
		}
		return nil, fmt.Errorf("no market found for condition_id %s", conditionID)
	}

	var market Market
	if err := json.Unmarshal(body, &market); err == nil {
		return &market, nil
	}

	return nil, fmt.Errorf("failed to decode market response")
}

// GetMarketBySlug fetches market details by slug
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (*Market, error) {
	body, err := c.get(ctx, "/markets/slug/"+url.PathEscape(slug), nil, "markets_slug")
	if err != nil {
		return nil, err
	}

	var market Market
	if err := json.Unmarshal(body, &market); err != nil {
		return nil, fmt.Errorf("decode market response: %w", err)
	}

	return &market, nil
}

// GetMarketByID fetches market details by ID
func (c *Client) GetMarketByID(ctx context.Context, id string) (*Market, error) {
	body, err := c.get(ctx, "/markets/"+url.PathEscape(id), nil, "markets_id")
	if err != nil {
		return nil, err
	}

	var market Market
	if err := json.Unmarshal(body, &market); err != nil {
		return nil, fmt.Errorf("decode market response: %w", err)
	}

	return &market, nil
}

// GetTopMarketsByVolume paginates the active markets listing until it has
// gathered enough candidates, drops inactive, closed and archived entries,
// and returns the top markets sorted by 7d then 24h volume.
func (c *Client) GetTopMarketsByVolume(ctx context.Context, limit int) ([]TopMarket, error) {
	var all []Market
	offset := 0

	// Over-fetch because some entries fail the active filter below.
	for len(all) < limit*2 {
		batch, err := c.GetMarkets(ctx, MarketParams{
			Limit:     pageSize,
			Offset:    offset,
			Active:    true,
			Closed:    false,
			Order:     "volume24hr",
			Ascending: false,
		})
		if err != nil {
			if len(all) == 0 {
				return nil, fmt.Errorf("fetch markets page: %w", err)
			}
			c.log.WithError(err).WithField("offset", offset).Warn("Market pagination stopped early")
			break
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		offset += pageSize
		if len(batch) < pageSize {
			break
		}
	}

	processed := make([]TopMarket, 0, len(all))
	for i := range all {
		m := &all[i]
		if !m.Active || m.Closed || m.Archived {
			continue
		}
		processed = append(processed, m.Normalize())
	}

	sort.Slice(processed, func(i, j int) bool {
		if processed[i].Volume7d != processed[j].Volume7d {
			return processed[i].Volume7d > processed[j].Volume7d
		}
		return processed[i].Volume24h > processed[j].Volume24h
	})

	if len(processed) > limit {
		processed = processed[:limit]
	}

	return processed, nil
}

// get performs a rate-limited GET against the Gamma API and returns the raw
// response body. endpoint labels the request in metrics.
func (c *Client) get(ctx context.Context, path string, query url.Values, endpoint string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest("gamma", endpoint, time.Since(start), err)
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

	// Gamma API is public - no auth headers needed
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

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
