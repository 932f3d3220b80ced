package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"debatefloor/internal/debate"
	"debatefloor/internal/flow"
	"debatefloor/internal/metrics"
	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/storage"
)

type deliberateRequest struct {
	Stages map[string]bool `json:"stages"`
}

type deliberateResponse struct {
	MarketID      string                `json:"market_id"`
	RunID         string                `json:"run_id"`
	Contributions []debate.Contribution `json:"contributions"`
	Verdict       string                `json:"verdict"`
	EnabledStages []string              `json:"enabled_stages"`
}

// handleDeliberate runs the expert panel over one market and returns the
// full transcript with the verdict. An empty body runs every stage.
func (s *Server) handleDeliberate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deliberateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	stageCfg, err := debate.ParseStageConfig(req.Stages)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	market, err := s.resolveMarket(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.log.WithError(err).Error("Market lookup failed")
		s.respondError(w, http.StatusInternalServerError, "failed to load market")
		return
	}
	if market == nil {
		s.respondError(w, http.StatusNotFound, "Market not found")
		return
	}

	state := &debate.State{
		Market: debate.MarketSnapshot{
			ID:        market.MarketID,
			Question:  market.Title,
			YesPrice:  market.YesPercentage,
			Volume24h: market.Volume24h,
			Volume7d:  market.Volume7d,
			Liquidity: market.Liquidity,
		},
	}
	if market.EndDateTS > 0 {
		state.Market.EndDate = time.Unix(market.EndDateTS, 0).UTC().Format(time.RFC3339)
	}
	s.loadPrices(ctx, market, state)
	state.Traders = s.traderSnapshots(ctx, market)

	runID := uuid.New().String()
	log := s.log.WithFields(logrus.Fields{
		"market": market.MarketID,
		"run_id": runID,
	})
	log.WithField("stages", stageCfg.EnabledIDs()).Info("Deliberation started")

	start := time.Now()
	err = s.debates.Run(ctx, state, stageCfg)
	metrics.RecordDeliberation(time.Since(start), err)
	if err != nil {
		log.WithError(err).Error("Deliberation failed")
		s.respondError(w, http.StatusInternalServerError, "deliberation failed")
		return
	}
	log.WithField("duration", time.Since(start).String()).Info("Deliberation finished")

	s.respondJSON(w, http.StatusOK, deliberateResponse{
		MarketID:      market.MarketID,
		RunID:         runID,
		Contributions: state.Contributions,
		Verdict:       state.Verdict,
		EnabledStages: stageCfg.EnabledIDs(),
	})
}

// resolveMarket looks the market up locally and falls back to the upstream
// catalog, adopting any hit into storage so later requests stay local.
func (s *Server) resolveMarket(ctx context.Context, id string) (*storage.Market, error) {
	market, err := s.lookupMarket(ctx, id)
	if err != nil || market != nil {
		return market, err
	}

	raw, err := s.gamma.GetMarketByConditionID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("market", id).Debug("Condition id lookup missed")
		raw, err = s.gamma.GetMarketBySlug(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("market", id).Debug("Slug lookup missed")
			return nil, nil
		}
	}

	top := raw.Normalize()
	adopted := &storage.Market{
		MarketID:      top.ID,
		Slug:          top.Slug,
		Title:         top.Question,
		Description:   top.Description,
		Category:      top.Category,
		Volume24h:     top.Volume24h,
		Volume7d:      top.Volume7d,
		Liquidity:     top.Liquidity,
		YesPercentage: top.YesPercentage,
		IsActive:      top.Active,
		ImageURL:      top.ImageURL,
		CLOBTokenIDs:  top.CLOBTokenIDs,
	}
	if top.EndDate != nil {
		adopted.EndDateTS = top.EndDate.Unix()
	}
	if err := s.db.UpsertMarket(ctx, adopted); err != nil {
		s.log.WithError(err).WithField("market", top.ID).Warn("Failed to adopt resolved market")
	}
	return adopted, nil
}

// loadPrices fills the 24h and 7d closing series. Price feed trouble leaves
// the series empty and lets the stages work from the snapshot alone.
func (s *Server) loadPrices(ctx context.Context, market *storage.Market, state *debate.State) {
	tokenID, err := market.YesTokenID()
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Debug("No price series available")
		return
	}
	state.Prices24h = s.priceSeries(ctx, tokenID, clobapi.Interval24h, clobapi.Fidelity24h)
	state.Prices7d = s.priceSeries(ctx, tokenID, clobapi.Interval7d, clobapi.Fidelity7d)
}

func (s *Server) priceSeries(ctx context.Context, tokenID, interval string, fidelity int) []float64 {
	points, err := s.prices.GetPriceHistory(ctx, tokenID, interval, fidelity)
	if err != nil {
		s.log.WithError(err).WithField("interval", interval).Warn("Price history fetch failed")
		return nil
	}
	series := make([]float64, 0, len(points))
	for _, p := range points {
		series = append(series, p.Price*100)
	}
	return series
}

// traderSnapshots gathers the top-trader flow summary, preferring the holder
// snapshot and falling back to the raw fill feed.
func (s *Server) traderSnapshots(ctx context.Context, market *storage.Market) []flow.TraderSnapshot {
	holders := s.holderRecords(ctx, market)
	var trades []flow.TradeRecord
	if len(holders) == 0 {
		trades = s.tradeRecords(ctx, market)
	}
	return s.traders.Aggregate(ctx, market.Slug, holders, trades)
}

func (s *Server) holderRecords(ctx context.Context, market *storage.Market) []flow.HolderRecord {
	groups, err := s.trades.GetHolders(ctx, market.MarketID, 0)
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Warn("Holders fetch failed")
		return nil
	}
	var records []flow.HolderRecord
	for _, g := range groups {
		for i := range g.Holders {
			h := &g.Holders[i]
			records = append(records, flow.HolderRecord{
				Wallet:       h.ProxyWallet,
				Name:         h.DisplayName(),
				Amount:       h.Amount,
				OutcomeIndex: h.OutcomeIndex,
			})
		}
	}
	return records
}

func (s *Server) tradeRecords(ctx context.Context, market *storage.Market) []flow.TradeRecord {
	if market.Slug == "" {
		return nil
	}
	trades, err := s.trades.GetTrades(ctx, dataapi.TradeParams{
		Market: market.Slug,
		Limit:  s.cfg.TraderFlowTradeLimit,
	})
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Warn("Trades fetch failed")
		return nil
	}
	records := make([]flow.TradeRecord, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		records = append(records, flow.TradeRecord{
			Market:    t.Slug,
			Wallet:    t.ProxyWallet,
			Name:      t.DisplayName(),
			Side:      t.Side,
			Outcome:   t.Outcome,
			Size:      t.Size,
			Price:     t.Price,
			Value:     t.USDCSize,
			Timestamp: strconv.FormatInt(t.Timestamp, 10),
		})
	}
	return records
}
