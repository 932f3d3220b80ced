// Package refresher keeps the tracked market universe current. On a fixed
// interval it pulls the top markets by volume, stores them with a fresh price
// snapshot, fans out per-market news fetches, scans recent fills for
// whale-sized trades and prunes aged rows.
package refresher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"debatefloor/internal/alerts"
	"debatefloor/internal/config"
	"debatefloor/internal/flow"
	"debatefloor/internal/metrics"
	"debatefloor/internal/news"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/polymarket/gammaapi"
	"debatefloor/internal/storage"
)

const (
	newsPruneEvery     = 24 * time.Hour
	snapshotPruneEvery = 7 * 24 * time.Hour

	newsWorkers         = 4
	whaleScanTradeLimit = 200
)

// Refresher owns the background maintenance loop.
type Refresher struct {
	cfg         *config.Config
	db          *storage.DB
	gammaClient *gammaapi.Client
	dataClient  *dataapi.Client
	newsClient  *news.Client
	notices     alerts.Sender
	log         *logrus.Logger
}

// New creates a refresher over the given clients and store.
func New(
	cfg *config.Config,
	db *storage.DB,
	gammaClient *gammaapi.Client,
	dataClient *dataapi.Client,
	newsClient *news.Client,
	notices alerts.Sender,
	log *logrus.Logger,
) *Refresher {
	return &Refresher{
		cfg:         cfg,
		db:          db,
		gammaClient: gammaClient,
		dataClient:  dataClient,
		newsClient:  newsClient,
		notices:     notices,
		log:         log,
	}
}

// Run executes one cycle immediately, then one per RefreshInterval until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	r.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Refresher stopped")
			return
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Refresher) runCycle(ctx context.Context) {
	if err := r.RunCycle(ctx); err != nil && ctx.Err() == nil {
		r.log.WithError(err).Error("Refresh cycle failed")
	}
}

// RunCycle performs one full refresh: markets first, then news, whale scan
// and retention pruning against the markets just fetched. Only the market
// fetch is fatal to the cycle; everything downstream degrades per item.
func (r *Refresher) RunCycle(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRefreshCycle(time.Since(start), err) }()

	markets, err := r.refreshMarkets(ctx)
	if err != nil {
		return fmt.Errorf("refresh markets: %w", err)
	}

	r.refreshNews(ctx, markets)
	r.scanWhaleTrades(ctx, markets)
	r.pruneAgedRows(ctx)

	r.log.WithFields(logrus.Fields{
		"markets":  len(markets),
		"duration": time.Since(start).String(),
	}).Info("Refresh cycle completed")

	return nil
}

// refreshMarkets stores the current top markets and appends one price
// snapshot per market. A single failing upsert skips that market only.
func (r *Refresher) refreshMarkets(ctx context.Context) ([]gammaapi.TopMarket, error) {
	tops, err := r.gammaClient.GetTopMarketsByVolume(ctx, r.cfg.TopMarketsLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch top markets: %w", err)
	}

	for i := range tops {
		top := &tops[i]

		if err := r.db.UpsertMarket(ctx, marketRecord(top)); err != nil {
			r.log.WithError(err).WithField("market", top.ID).Error("Failed to store market")
			continue
		}

		snapshot := &storage.PriceSnapshot{
			MarketID:      top.ID,
			YesPercentage: top.YesPercentage,
			Volume:        top.Volume24h,
		}
		if err := r.db.InsertPriceSnapshot(ctx, snapshot); err != nil {
			r.log.WithError(err).WithField("market", top.ID).Error("Failed to store price snapshot")
		}
	}

	if err := r.db.SetState(ctx, storage.StateMarketsUpdated, time.Now().UTC().Format(time.RFC3339)); err != nil {
		r.log.WithError(err).Error("Failed to update refresh checkpoint")
	}

	return tops, nil
}

// marketRecord converts a normalized Gamma market into its storage row.
func marketRecord(top *gammaapi.TopMarket) *storage.Market {
	record := &storage.Market{
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
		record.EndDateTS = top.EndDate.Unix()
	}
	return record
}

// refreshNews fans out one news fetch per market with bounded concurrency.
// A failing market is logged and skipped; the cycle never aborts on news.
func (r *Refresher) refreshNews(ctx context.Context, markets []gammaapi.TopMarket) {
	if r.cfg.NewsAPIKey == "" {
		r.log.Debug("News refresh skipped, no NewsAPI key configured")
		return
	}

	counts := make([]int, len(markets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(newsWorkers)

	for i := range markets {
		g.Go(func() error {
			n, err := r.refreshMarketNews(gctx, &markets[i])
			if err != nil {
				r.log.WithError(err).WithField("market", markets[i].ID).Warn("News refresh failed for market")
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		r.log.WithField("articles", total).Info("Stored fresh news articles")
	}
}

func (r *Refresher) refreshMarketNews(ctx context.Context, market *gammaapi.TopMarket) (int, error) {
	query := news.ExtractKeywords(market.Question)
	if query == "" {
		return 0, nil
	}

	articles, err := r.newsClient.Everything(ctx, query, r.cfg.NewsArticlesPerMarket)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range articles {
		record := &storage.NewsArticle{
			MarketID:    market.ID,
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

		isNew, err := r.db.UpsertNewsArticle(ctx, record)
		if err != nil {
			r.log.WithError(err).WithField("url_hash", a.URLHash).Error("Failed to store news article")
			continue
		}
		if isNew {
			created++
		}
	}

	if created > 0 {
		metrics.NewsArticlesStored.Add(float64(created))
	}
	return created, nil
}

// scanWhaleTrades checks each tracked market's recent fills for trades at or
// above the whale threshold and emits a notice for every one not seen before.
func (r *Refresher) scanWhaleTrades(ctx context.Context, markets []gammaapi.TopMarket) {
	cutoffTS := time.Now().Add(-time.Duration(r.cfg.WhaleLookbackHrs) * time.Hour).Unix()

	for i := range markets {
		market := &markets[i]
		if market.Slug == "" {
			continue
		}

		trades, err := r.dataClient.GetTrades(ctx, dataapi.TradeParams{
			Market:       market.Slug,
			Limit:        whaleScanTradeLimit,
			FilterType:   "CASH",
			FilterAmount: r.cfg.WhaleTradeUSD,
		})
		if err != nil {
			r.log.WithError(err).WithField("market", market.ID).Warn("Whale scan failed for market")
			continue
		}

		for j := range trades {
			r.processWhaleTrade(ctx, market, &trades[j], cutoffTS)
		}
	}
}

// processWhaleTrade dedupes one candidate fill and sends the notice. The
// seen-row insert happens before the send so a crash mid-send drops the
// notice instead of repeating it.
func (r *Refresher) processWhaleTrade(ctx context.Context, market *gammaapi.TopMarket, trade *dataapi.Trade, cutoffTS int64) {
	if trade.Timestamp < cutoffTS {
		return
	}
	if trade.Side != "BUY" && trade.Side != "SELL" {
		return
	}

	// Post-API filter; the CASH filter is only advisory upstream.
	notionalUSD := trade.Notional()
	if notionalUSD < r.cfg.WhaleTradeUSD {
		return
	}

	hash := tradeHash(trade)
	seen, err := r.db.HasWhaleTradeSeen(ctx, hash)
	if err != nil {
		r.log.WithError(err).WithField("trade_hash", hash).Error("Whale dedupe lookup failed")
		return
	}
	if seen {
		return
	}

	if err := r.db.InsertWhaleTradeSeen(ctx, &storage.WhaleTradeSeen{
		TradeHash:    hash,
		MarketID:     market.ID,
		ProxyWallet:  trade.ProxyWallet,
		Side:         trade.Side,
		Outcome:      trade.Outcome,
		NotionalUSD:  notionalUSD,
		Price:        trade.Price,
		TimestampSec: trade.Timestamp,
	}); err != nil {
		r.log.WithError(err).WithField("trade_hash", hash).Error("Failed to record whale trade")
		return
	}

	notice := buildNotice(market, trade, notionalUSD, r.cfg.WhaleTradeUSD, r.cfg.Environment)
	notice.WalletAgeDays = r.walletAgeDays(ctx, trade.ProxyWallet, trade.Timestamp)

	sendStatus := "success"
	if err := r.notices.Send(ctx, notice); err != nil {
		sendStatus = "error"
		r.log.WithError(err).WithField("trade_hash", hash).Error("Failed to send whale notice")
	}
	metrics.RecordWhaleNotice(string(notice.Severity), sendStatus, r.cfg.AlertMode)
}

// walletAgeDays reports how long the wallet had been active when the trade
// happened. A failed lookup returns -1 so the notice still goes out, just
// without the age context.
func (r *Refresher) walletAgeDays(ctx context.Context, wallet string, tradeTS int64) int {
	activity, err := r.dataClient.GetWalletFirstActivity(ctx, wallet)
	if err != nil {
		r.log.WithError(err).WithField("wallet", wallet).Debug("First-activity lookup failed")
		return -1
	}
	return ageDays(activity.Timestamp, tradeTS)
}

// ageDays converts a first-activity timestamp into whole days of account age
// at trade time.
func ageDays(firstTS, tradeTS int64) int {
	if firstTS <= 0 {
		return -1
	}
	if tradeTS < firstTS {
		return 0
	}
	return int((tradeTS - firstTS) / 86400)
}

// buildNotice assembles the alert payload for one whale trade.
func buildNotice(market *gammaapi.TopMarket, trade *dataapi.Trade, notionalUSD, thresholdUSD float64, environment string) *alerts.Notice {
	hash := tradeHash(trade)

	return &alerts.Notice{
		Severity:       alerts.SeverityFor(notionalUSD, thresholdUSD),
		MarketID:       market.ID,
		MarketTitle:    market.Question,
		MarketSlug:     market.Slug,
		MarketURL:      marketURL(market),
		WalletAddress:  trade.ProxyWallet,
		WalletShort:    shortenAddress(trade.ProxyWallet),
		TraderName:     trade.DisplayName(),
		WalletAgeDays:  -1,
		Side:           trade.Side,
		Outcome:        trade.Outcome,
		IsBullish:      flow.BullishFill(trade.Side, trade.Outcome),
		NotionalUSD:    notionalUSD,
		Price:          trade.Price,
		TradeHash:      hash,
		TradeHashShort: shortenHash(hash),
		Timestamp:      time.Unix(trade.Timestamp, 0).UTC(),
		Environment:    environment,
	}
}

func marketURL(market *gammaapi.TopMarket) string {
	if market.Slug != "" {
		return fmt.Sprintf("https://polymarket.com/market/%s", market.Slug)
	}
	return fmt.Sprintf("https://polymarket.com/search?q=%s", market.ID)
}

// tradeHash prefers the on-chain transaction hash and derives a stable
// fallback from the fill's identifying fields.
func tradeHash(trade *dataapi.Trade) string {
	if trade.TransactionHash != "" {
		return trade.TransactionHash
	}

	data := fmt.Sprintf("%s:%s:%d:%.6f:%.6f",
		trade.ProxyWallet,
		trade.ConditionID,
		trade.Timestamp,
		trade.Size,
		trade.Price,
	)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

func shortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func shortenHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:8] + "..." + hash[len(hash)-8:]
}

// pruneAgedRows runs the daily news prune and the weekly snapshot prune when
// their interval has elapsed, tracked through app state so restarts do not
// reset the schedule.
func (r *Refresher) pruneAgedRows(ctx context.Context) {
	r.pruneIfDue(ctx, storage.StateNewsPruned, newsPruneEvery, func() (int64, error) {
		return r.db.DeleteOldNews(ctx, r.cfg.NewsRetentionDays)
	})
	r.pruneIfDue(ctx, storage.StateSnapshotsPruned, snapshotPruneEvery, func() (int64, error) {
		return r.db.DeleteOldPriceSnapshots(ctx, r.cfg.SnapshotRetentionDays)
	})
}

func (r *Refresher) pruneIfDue(ctx context.Context, key string, every time.Duration, prune func() (int64, error)) {
	raw, err := r.db.GetState(ctx, key)
	if err != nil {
		r.log.WithError(err).WithField("key", key).Error("Failed to read prune checkpoint")
		return
	}
	if !pruneDue(raw, every, time.Now()) {
		return
	}

	deleted, err := prune()
	if err != nil {
		r.log.WithError(err).WithField("key", key).Error("Prune failed")
		return
	}

	r.log.WithFields(logrus.Fields{
		"key":     key,
		"deleted": deleted,
	}).Info("Pruned aged rows")

	if err := r.db.SetState(ctx, key, strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		r.log.WithError(err).WithField("key", key).Error("Failed to update prune checkpoint")
	}
}

// pruneDue reports whether a maintenance task whose last run is recorded as
// rawTS (unix seconds, empty when never run) is due again.
func pruneDue(rawTS string, every time.Duration, now time.Time) bool {
	if rawTS == "" {
		return true
	}
	last, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return true
	}
	return now.Sub(time.Unix(last, 0)) >= every
}
