package server

import (
	"context"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"debatefloor/internal/metrics"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/stats"
)

const topHoldersPerSide = 20

type holderView struct {
	Address   string  `json:"address"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Img       *string `json:"img"`
	MarketPnL float64 `json:"market_pnl"`
	MarketROI float64 `json:"market_roi"`
	GlobalPnL float64 `json:"global_pnl"`
	GlobalROI float64 `json:"global_roi"`
}

type holdersResponse struct {
	Yes []holderView `json:"yes_holders"`
	No  []holderView `json:"no_holders"`
}

// handleMarketHolders returns the largest wallets on each side of a market,
// enriched with per-market and lifetime profitability where the stats
// provider is available. Feed failures degrade to empty lists.
func (s *Server) handleMarketHolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	groups, err := s.trades.GetHolders(ctx, market.MarketID, 0)
	if err != nil {
		s.log.WithError(err).WithField("market", market.MarketID).Warn("Holders fetch failed")
		s.respondJSON(w, http.StatusOK, holdersResponse{Yes: []holderView{}, No: []holderView{}})
		return
	}

	enriched := s.enrichHolders(ctx, market.MarketID, groups)
	yes, no := holderViews(groups, enriched)
	s.respondJSON(w, http.StatusOK, holdersResponse{Yes: yes, No: no})
}

// enrichHolders looks up profitability stats for every distinct wallet in
// the holder groups. Individual lookup failures leave that wallet with zero
// stats rather than failing the whole page.
func (s *Server) enrichHolders(ctx context.Context, conditionID string, groups []dataapi.TokenHolders) map[string]stats.HolderStats {
	if s.wallets == nil {
		return nil
	}

	var wallets []string
	seen := make(map[string]struct{})
	for _, g := range groups {
		for i := range g.Holders {
			w := g.Holders[i].ProxyWallet
			if w == "" {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			wallets = append(wallets, w)
		}
	}
	if len(wallets) == 0 {
		return nil
	}

	workers := s.cfg.EnrichmentWorkers
	if workers <= 0 {
		workers = 8
	}

	results := make([]stats.HolderStats, len(wallets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, wallet := range wallets {
		g.Go(func() error {
			hs, err := s.wallets.HolderStats(gctx, wallet, conditionID)
			metrics.RecordEnrichment(err)
			if err != nil {
				s.log.WithError(err).WithField("wallet", wallet).Debug("Holder stats lookup failed")
				return nil
			}
			results[i] = hs
			return nil
		})
	}
	_ = g.Wait()

	enriched := make(map[string]stats.HolderStats, len(wallets))
	for i, wallet := range wallets {
		enriched[wallet] = results[i]
	}
	return enriched
}

// holderViews splits holders into yes and no sides, largest position first,
// at most 20 per side. Zero outcome index is the yes side.
func holderViews(groups []dataapi.TokenHolders, enriched map[string]stats.HolderStats) (yes, no []holderView) {
	yes = make([]holderView, 0)
	no = make([]holderView, 0)

	for _, g := range groups {
		for i := range g.Holders {
			h := &g.Holders[i]
			if h.ProxyWallet == "" {
				continue
			}

			hs := enriched[h.ProxyWallet]
			view := holderView{
				Address:   h.ProxyWallet,
				Name:      h.DisplayName(),
				Amount:    h.Amount,
				Img:       optional(h.ProfileImage),
				MarketPnL: hs.MarketPnL,
				MarketROI: hs.MarketROI,
				GlobalPnL: hs.Global.PnL,
				GlobalROI: hs.Global.ROI,
			}
			if h.OutcomeIndex == 0 {
				yes = append(yes, view)
			} else {
				no = append(no, view)
			}
		}
	}

	sortHolders(yes)
	sortHolders(no)
	if len(yes) > topHoldersPerSide {
		yes = yes[:topHoldersPerSide]
	}
	if len(no) > topHoldersPerSide {
		no = no[:topHoldersPerSide]
	}
	return yes, no
}

func sortHolders(views []holderView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Amount > views[j].Amount
	})
}
