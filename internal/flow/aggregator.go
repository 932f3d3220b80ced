package flow

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"debatefloor/internal/metrics"
)

// GlobalStats is a wallet's account-wide performance, independent of any one
// market.
type GlobalStats struct {
	PnL     float64
	ROI     float64
	Balance float64
}

// StatsProvider looks up account-wide stats for a wallet.
type StatsProvider interface {
	GlobalStats(ctx context.Context, wallet string) (GlobalStats, error)
}

const (
	defaultTopN     = 5
	defaultLookback = 7 * 24 * time.Hour
	defaultWorkers  = 8
)

// Aggregator condenses raw trade or holder records into ranked
// TraderSnapshots and enriches the leaders with account-wide stats.
type Aggregator struct {
	stats    StatsProvider
	log      *logrus.Logger
	topN     int
	lookback time.Duration
	workers  int
}

// Options tune the aggregation window and ranking depth. Zero values fall
// back to the defaults (top 5, 7-day lookback, 8 enrichment workers).
type Options struct {
	TopN     int
	Lookback time.Duration
	Workers  int
}

// NewAggregator creates an Aggregator. stats may be nil, in which case
// enrichment is skipped entirely.
func NewAggregator(stats StatsProvider, log *logrus.Logger, opts Options) *Aggregator {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.Lookback <= 0 {
		opts.Lookback = defaultLookback
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Aggregator{
		stats:    stats,
		log:      log,
		topN:     opts.TopN,
		lookback: opts.Lookback,
		workers:  opts.Workers,
	}
}

// Aggregate prefers the holders snapshot and falls back to the trade window
// when no holders are available. The result is ranked by volume descending
// and capped at the configured top N.
func (a *Aggregator) Aggregate(ctx context.Context, market string, holders []HolderRecord, trades []TradeRecord) []TraderSnapshot {
	if len(holders) > 0 {
		return a.FromHolders(ctx, holders)
	}
	return a.FromTrades(ctx, market, trades)
}

type accumulator struct {
	name         string
	volume       float64
	count        int
	bullish      float64
	bearish      float64
	lastActivity time.Time
}

// FromTrades aggregates a window of raw fills for one market. Records that
// belong to other markets, carry unparsable timestamps, fall outside the
// lookback window, or are not plain buys/sells are dropped.
func (a *Aggregator) FromTrades(ctx context.Context, market string, trades []TradeRecord) []TraderSnapshot {
	target := normalizeID(market)
	cutoff := time.Now().UTC().Add(-a.lookback)

	wallets := make(map[string]*accumulator)
	var order []string

	for _, tr := range trades {
		if tr.Wallet == "" {
			continue
		}
		if target != "" && tr.Market != "" && normalizeID(tr.Market) != target {
			continue
		}

		ts, err := parseTimestamp(tr.Timestamp)
		if err != nil {
			a.log.WithError(err).WithField("wallet", tr.Wallet).Debug("Dropping trade with bad timestamp")
			continue
		}
		if ts.Before(cutoff) {
			continue
		}

		if !strings.EqualFold(tr.Side, "BUY") && !strings.EqualFold(tr.Side, "SELL") {
			continue
		}

		acc, ok := wallets[tr.Wallet]
		if !ok {
			acc = &accumulator{name: tr.Name}
			wallets[tr.Wallet] = acc
			order = append(order, tr.Wallet)
		}

		value := notional(tr)
		acc.volume += value
		acc.count++
		if BullishFill(tr.Side, tr.Outcome) {
			acc.bullish += value
		} else {
			acc.bearish += value
		}
		if ts.After(acc.lastActivity) {
			acc.lastActivity = ts
		}
	}

	snapshots := make([]TraderSnapshot, 0, len(wallets))
	for _, addr := range order {
		acc := wallets[addr]
		snapshots = append(snapshots, TraderSnapshot{
			Address:      addr,
			Name:         acc.name,
			Volume:       acc.volume,
			TradeCount:   acc.count,
			BullishVol:   acc.bullish,
			BearishVol:   acc.bearish,
			Bias:         classifyBias(acc.bullish, acc.bearish),
			LastActivity: acc.lastActivity,
		})
	}

	return a.rankAndEnrich(ctx, snapshots)
}

// FromHolders aggregates a current-positions snapshot. A wallet holding both
// outcome tokens collapses to one entry; outcome index 0 counts as bullish
// exposure.
func (a *Aggregator) FromHolders(ctx context.Context, holders []HolderRecord) []TraderSnapshot {
	wallets := make(map[string]*accumulator)
	var order []string

	for _, h := range holders {
		if h.Wallet == "" || h.Amount <= 0 {
			continue
		}

		acc, ok := wallets[h.Wallet]
		if !ok {
			acc = &accumulator{name: h.Name}
			wallets[h.Wallet] = acc
			order = append(order, h.Wallet)
		}

		acc.volume += h.Amount
		acc.count++
		if h.OutcomeIndex == 0 {
			acc.bullish += h.Amount
		} else {
			acc.bearish += h.Amount
		}
	}

	snapshots := make([]TraderSnapshot, 0, len(wallets))
	for _, addr := range order {
		acc := wallets[addr]
		snapshots = append(snapshots, TraderSnapshot{
			Address:    addr,
			Name:       acc.name,
			Volume:     acc.volume,
			TradeCount: acc.count,
			BullishVol: acc.bullish,
			BearishVol: acc.bearish,
			Bias:       classifyBias(acc.bullish, acc.bearish),
		})
	}

	return a.rankAndEnrich(ctx, snapshots)
}

// rankAndEnrich sorts by volume descending (address as tie-break for
// determinism), keeps the top N and fans out stats lookups with bounded
// concurrency. Lookup failures degrade that wallet's stats to zeros.
func (a *Aggregator) rankAndEnrich(ctx context.Context, snapshots []TraderSnapshot) []TraderSnapshot {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Volume != snapshots[j].Volume {
			return snapshots[i].Volume > snapshots[j].Volume
		}
		return snapshots[i].Address < snapshots[j].Address
	})

	if len(snapshots) > a.topN {
		snapshots = snapshots[:a.topN]
	}

	if a.stats == nil || len(snapshots) == 0 {
		return snapshots
	}

	// Each worker writes only its own index; results are read after Wait.
	results := make([]GlobalStats, len(snapshots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range snapshots {
		g.Go(func() error {
			stats, err := a.stats.GlobalStats(gctx, snapshots[i].Address)
			metrics.RecordEnrichment(err)
			if err != nil {
				a.log.WithError(err).WithField("wallet", snapshots[i].Address).Debug("Stats enrichment failed")
				return nil
			}
			results[i] = stats
			return nil
		})
	}
	_ = g.Wait()

	for i := range snapshots {
		snapshots[i].GlobalPnL = results[i].PnL
		snapshots[i].GlobalROI = results[i].ROI
		snapshots[i].Balance = results[i].Balance
	}

	return snapshots
}
