package server

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"debatefloor/internal/flow"
	"debatefloor/internal/polymarket/dataapi"
)

const (
	defaultWhaleMinVolume  = 100.0
	defaultWhaleFetchLimit = 1000
	maxWhaleTrades         = 50

	// wireTimeLayout is the second-resolution UTC timestamp the feed
	// consumers expect.
	wireTimeLayout = "2006-01-02T15:04:05Z"
)

type whaleView struct {
	TradeID   string  `json:"trade_id"`
	Address   string  `json:"address"`
	Name      *string `json:"name"`
	Side      string  `json:"side"`
	Outcome   string  `json:"outcome"`
	IsBullish bool    `json:"is_bullish"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp string  `json:"timestamp"`
}

// handleMarketWhales returns the recent large fills on one market. Upstream
// fetch failures degrade to an empty list rather than an error, so a flaky
// feed never breaks the market page.
func (s *Server) handleMarketWhales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	minVolume, err := queryFloat(r, "min_volume", defaultWhaleMinVolume)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid min_volume")
		return
	}
	limit, err := queryInt(r, "limit", defaultWhaleFetchLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
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
	if market.Slug == "" {
		s.respondJSON(w, http.StatusOK, []whaleView{})
		return
	}

	trades, err := s.trades.GetTrades(ctx, dataapi.TradeParams{Market: market.Slug, Limit: limit})
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Error("Whale trades fetch failed")
		s.respondJSON(w, http.StatusOK, []whaleView{})
		return
	}

	cutoffTS := time.Now().UTC().Add(-time.Duration(s.cfg.WhaleLookbackHrs) * time.Hour).Unix()
	s.respondJSON(w, http.StatusOK, whaleViews(market.Slug, trades, minVolume, cutoffTS))
}

// whaleViews filters a raw fill feed down to the large trades on one market
// within the lookback window, newest first, at most 50. Fills tagged with a
// different slug, with no timestamp or outside plain buy/sell are dropped.
func whaleViews(slug string, trades []dataapi.Trade, minVolume float64, cutoffTS int64) []whaleView {
	views := make([]whaleView, 0, len(trades))

	for i := range trades {
		t := &trades[i]

		if t.Slug != "" && t.Slug != slug {
			continue
		}
		if t.Timestamp == 0 || t.Timestamp < cutoffTS {
			continue
		}

		side := strings.ToUpper(t.Side)
		if side != "BUY" && side != "SELL" {
			continue
		}

		volume := t.Size * t.Price
		if volume < minVolume {
			continue
		}

		views = append(views, whaleView{
			TradeID:   shortTradeID(t.TransactionHash),
			Address:   addressOrUnknown(t.ProxyWallet),
			Name:      optional(t.DisplayName()),
			Side:      side,
			Outcome:   t.Outcome,
			IsBullish: flow.BullishFill(side, t.Outcome),
			Size:      roundTo(t.Size, 2),
			Price:     roundTo(t.Price, 4),
			Volume:    roundTo(volume, 2),
			Timestamp: time.Unix(t.Timestamp, 0).UTC().Format(wireTimeLayout),
		})
	}

	// The fixed-width layout sorts lexicographically by time.
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Timestamp > views[j].Timestamp
	})

	if len(views) > maxWhaleTrades {
		views = views[:maxWhaleTrades]
	}
	return views
}

func shortTradeID(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

func addressOrUnknown(wallet string) string {
	if wallet == "" {
		return "Unknown"
	}
	return wallet
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
