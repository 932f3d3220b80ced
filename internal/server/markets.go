package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/storage"
)

// marketListLimit caps the listing at the refresher's realistic universe.
const marketListLimit = 100

type marketView struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Volume24h     float64    `json:"volume_24h"`
	Volume7d      float64    `json:"volume_7d"`
	Liquidity     float64    `json:"liquidity"`
	YesPercentage float64    `json:"yes_percentage"`
	IsActive      bool       `json:"is_active"`
	EndDate       *time.Time `json:"end_date"`
	ImageURL      string     `json:"image_url"`
	CLOBTokenIDs  string     `json:"clob_token_ids"`
	LastUpdated   time.Time  `json:"last_updated"`
}

func newMarketView(m *storage.Market) marketView {
	view := marketView{
		ID:            m.MarketID,
		Slug:          m.Slug,
		Title:         m.Title,
		Description:   m.Description,
		Category:      m.Category,
		Volume24h:     m.Volume24h,
		Volume7d:      m.Volume7d,
		Liquidity:     m.Liquidity,
		YesPercentage: m.YesPercentage,
		IsActive:      m.IsActive,
		ImageURL:      m.ImageURL,
		CLOBTokenIDs:  m.CLOBTokenIDs,
		LastUpdated:   time.Unix(m.UpdatedTS, 0).UTC(),
	}
	if m.EndDateTS > 0 {
		end := time.Unix(m.EndDateTS, 0).UTC()
		view.EndDate = &end
	}
	return view
}

type marketListResponse struct {
	Markets     []marketView `json:"markets"`
	Total       int          `json:"total"`
	LastUpdated *time.Time   `json:"last_updated"`
}

// handleListMarkets returns the tracked active markets, volume order, along
// with the refresher's last completed run.
func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.db.ListMarkets(ctx, true, marketListLimit)
	if err != nil {
		s.log.WithError(err).Error("Market listing failed")
		s.respondError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	views := make([]marketView, 0, len(rows))
	for i := range rows {
		views = append(views, newMarketView(&rows[i]))
	}

	resp := marketListResponse{Markets: views, Total: len(views)}
	if raw, err := s.db.GetState(ctx, storage.StateMarketsUpdated); err == nil && raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			resp.LastUpdated = &ts
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	market, err := s.lookupMarket(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.log.WithError(err).Error("Market lookup failed")
		s.respondError(w, http.StatusInternalServerError, "failed to load market")
		return
	}
	if market == nil {
		s.respondError(w, http.StatusNotFound, "Market not found")
		return
	}
	s.respondJSON(w, http.StatusOK, newMarketView(market))
}

// timeframes maps the API timeframe names onto CLOB sampling parameters.
var timeframes = map[string]struct {
	interval string
	fidelity int
}{
	"24H": {clobapi.Interval24h, clobapi.Fidelity24h},
	"7D":  {clobapi.Interval7d, clobapi.Fidelity7d},
	"1M":  {clobapi.Interval30d, clobapi.Fidelity30d},
	"ALL": {clobapi.IntervalMax, clobapi.FidelityMax},
}

type pricePointView struct {
	Timestamp     time.Time `json:"timestamp"`
	YesPercentage float64   `json:"yes_percentage"`
	Volume        float64   `json:"volume"`
}

type historyResponse struct {
	MarketID  string           `json:"market_id"`
	History   []pricePointView `json:"history"`
	Timeframe string           `json:"timeframe"`
}

// handleMarketHistory serves sampled YES price history. When the market has
// no usable token ids or the CLOB returns nothing, the history degrades to a
// single point at the stored price.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "24H"
	}
	window, ok := timeframes[timeframe]
	if !ok {
		s.respondError(w, http.StatusBadRequest, "timeframe must be one of 24H, 7D, 1M, ALL")
		return
	}

	market, err := s.lookupMarket(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.log.WithError(err).Error("Market lookup failed")
		s.respondError(w, http.StatusInternalServerError, "failed to load market")
		return
	}
	if market == nil {
		s.respondError(w, http.StatusNotFound, "Market not found")
		return
	}

	resp := historyResponse{MarketID: market.MarketID, Timeframe: timeframe}

	tokenID, err := market.YesTokenID()
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Debug("History degraded to current price")
		resp.History = currentPricePoint(market)
		s.respondJSON(w, http.StatusOK, resp)
		return
	}

	points, err := s.prices.GetPriceHistory(ctx, tokenID, window.interval, window.fidelity)
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Warn("Price history fetch failed")
	}
	if len(points) == 0 {
		resp.History = currentPricePoint(market)
		s.respondJSON(w, http.StatusOK, resp)
		return
	}

	history := make([]pricePointView, 0, len(points))
	for _, p := range points {
		history = append(history, pricePointView{
			Timestamp:     time.Unix(p.Timestamp, 0).UTC(),
			YesPercentage: p.Price * 100,
		})
	}
	resp.History = history

	s.respondJSON(w, http.StatusOK, resp)
}

// currentPricePoint is the single-point fallback history: the stored YES
// price at the market's last refresh.
func currentPricePoint(market *storage.Market) []pricePointView {
	ts := time.Now().UTC()
	if market.UpdatedTS > 0 {
		ts = time.Unix(market.UpdatedTS, 0).UTC()
	}
	return []pricePointView{{
		Timestamp:     ts,
		YesPercentage: market.YesPercentage,
		Volume:        market.Volume24h,
	}}
}
