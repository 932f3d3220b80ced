// Package search provides web search for debate stages via the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"

	defaultMaxResults = 3
	requestTimeout    = 30 * time.Second
)

// Result is a single search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Snippet renders a result as a compact text block for prompt assembly and
// duplicate detection.
func (r Result) Snippet() string {
	return fmt.Sprintf("%s\n%s\n%s", r.Title, r.URL, r.Content)
}

// Client calls the Tavily search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	maxResults int
	log        *logrus.Logger
}

// NewClient creates a Tavily client. An empty API key is allowed; Search will
// fail with a descriptive error so callers can degrade gracefully.
func NewClient(apiKey string, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 2),
		apiKey:     apiKey,
		maxResults: defaultMaxResults,
		log:        log,
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs one query and returns the ranked results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tavily API key is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		MaxResults:  c.maxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"query":   query,
		"results": len(parsed.Results),
	}).Debug("Tavily search completed")

	return parsed.Results, nil
}
