// Package news fetches and filters headlines relevant to a market question.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	newsAPIBaseURL = "https://newsapi.org/v2"

	defaultLimit   = 10
	maxPageSize    = 100
	requestTimeout = 30 * time.Second
)

// Article is a single headline with a stable hash for dedupe.
type Article struct {
	Title       string
	Description string
	URL         string
	URLHash     string
	Source      string
	Author      string
	Content     string
	PublishedAt time.Time
}

// Client calls the NewsAPI "everything" endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	log        *logrus.Logger
}

// NewClient creates a NewsAPI client. An empty API key is allowed; Everything
// will fail with a descriptive error so callers can degrade gracefully.
func NewClient(apiKey string, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		baseURL:    newsAPIBaseURL,
		apiKey:     apiKey,
		log:        log,
	}
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

type everythingResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

// Everything searches headlines matching the query, newest-relevant first.
// Articles without a URL, with a removed title, or duplicating an earlier URL
// in the same response are dropped.
func (c *Client) Everything(ctx context.Context, query string, limit int) ([]Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi key is not configured")
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("language", "en")
	params.Set("apiKey", c.apiKey)

	endpoint := fmt.Sprintf("%s/everything?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("newsapi rejected the API key")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("newsapi rate limit exceeded")
	default:
		return nil, fmt.Errorf("newsapi returned status %d", resp.StatusCode)
	}

	var parsed everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("newsapi error %s: %s", parsed.Code, parsed.Message)
	}

	articles := make([]Article, 0, len(parsed.Articles))
	seen := make(map[string]struct{})

	for _, a := range parsed.Articles {
		if a.URL == "" || a.Title == "[Removed]" {
			continue
		}

		hash := URLHash(a.URL)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		article := Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			URLHash:     hash,
			Source:      a.Source.Name,
			Author:      a.Author,
			Content:     a.Content,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			article.PublishedAt = ts
		}

		articles = append(articles, article)
	}

	c.log.WithFields(logrus.Fields{
		"query":    query,
		"total":    parsed.TotalResults,
		"returned": len(articles),
	}).Debug("News search completed")

	return articles, nil
}
