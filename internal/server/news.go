package server

import (
	"context"
	"net/http"
	"time"

	"debatefloor/internal/metrics"
	"debatefloor/internal/news"
	"debatefloor/internal/storage"
)

const (
	defaultNewsLimit = 20
	maxNewsLimit     = 100
)

type newsArticleView struct {
	ID          int64      `json:"id"`
	MarketID    string     `json:"market_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Author      string     `json:"author"`
	PublishedAt *time.Time `json:"published_at"`
}

type newsListResponse struct {
	Articles []newsArticleView `json:"articles"`
	Total    int               `json:"total"`
	MarketID string            `json:"market_id"`
}

// handleNews serves the cached articles for a market, newest first. A market
// with nothing cached yet gets a one-off fetch so adopted markets are not
// stuck empty until the next refresh cycle.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	marketParam := r.URL.Query().Get("market")
	if marketParam == "" {
		s.respondError(w, http.StatusBadRequest, "market query parameter is required")
		return
	}
	limit, err := queryInt(r, "limit", defaultNewsLimit)
	if err != nil || limit < 1 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxNewsLimit {
		limit = maxNewsLimit
	}

	market, err := s.lookupMarket(ctx, marketParam)
	if err != nil {
		s.log.WithError(err).Error("Market lookup failed")
		s.respondError(w, http.StatusInternalServerError, "failed to load market")
		return
	}
	if market == nil {
		s.respondError(w, http.StatusNotFound, "Market not found")
		return
	}

	articles, err := s.db.ListNewsArticles(ctx, market.MarketID, limit)
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Error("News listing failed")
		s.respondError(w, http.StatusInternalServerError, "failed to list news")
		return
	}
	if len(articles) == 0 {
		if created := s.fetchFreshNews(ctx, market); created > 0 {
			articles, err = s.db.ListNewsArticles(ctx, market.MarketID, limit)
			if err != nil {
				s.log.WithError(err).WithField("market", market.MarketID).Error("News listing failed")
				s.respondError(w, http.StatusInternalServerError, "failed to list news")
				return
			}
		}
	}

	views := make([]newsArticleView, 0, len(articles))
	for i := range articles {
		views = append(views, newNewsArticleView(&articles[i]))
	}
	s.respondJSON(w, http.StatusOK, newsListResponse{
		Articles: views,
		Total:    len(views),
		MarketID: market.MarketID,
	})
}

func newNewsArticleView(a *storage.NewsArticle) newsArticleView {
	view := newsArticleView{
		ID:          a.ID,
		MarketID:    a.MarketID,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		Source:      a.Source,
		Author:      a.Author,
	}
	if a.PublishedTS > 0 {
		t := time.Unix(a.PublishedTS, 0).UTC()
		view.PublishedAt = &t
	}
	return view
}

// fetchFreshNews pulls and stores articles for a market on demand, returning
// how many were new. Fetch trouble is logged and treated as zero articles.
func (s *Server) fetchFreshNews(ctx context.Context, market *storage.Market) int {
	if s.newsFeed == nil {
		return 0
	}
	query := news.ExtractKeywords(market.Title)
	if query == "" {
		return 0
	}

	articles, err := s.newsFeed.Everything(ctx, query, s.cfg.NewsArticlesPerMarket)
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Debug("On-demand news fetch failed")
		return 0
	}

	created := 0
	for _, a := range articles {
		record := &storage.NewsArticle{
			MarketID:    market.MarketID,
			URLHash:     a.URLHash,
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source,
			Author:      a.Author,
		}
		if !a.PublishedAt.IsZero() {
			record.PublishedTS = a.PublishedAt.Unix()
		}

		isNew, err := s.db.UpsertNewsArticle(ctx, record)
		if err != nil {
			s.log.WithError(err).WithField("url_hash", a.URLHash).Error("Failed to store news article")
			continue
		}
		if isNew {
			created++
		}
	}

	if created > 0 {
		metrics.NewsArticlesStored.Add(float64(created))
	}
	return created
}
