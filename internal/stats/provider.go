// Package stats resolves wallet performance from the Data API positions
// feed, with a TTL cache and a circuit breaker in front of the remote calls.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"debatefloor/internal/flow"
	"debatefloor/internal/metrics"
	"debatefloor/internal/polymarket/dataapi"
)

const (
	defaultTTL     = 300 * time.Second
	positionsLimit = 500
)

// PositionsClient is the slice of the Data API the provider needs.
type PositionsClient interface {
	GetPositions(ctx context.Context, wallet string, limit int) ([]dataapi.Position, error)
}

// HolderStats bundles the single-market and account-wide figures shown for
// one top holder. MarketROI is a percentage as delivered by the API.
type HolderStats struct {
	MarketPnL float64
	MarketROI float64
	Global    flow.GlobalStats
}

// Provider computes performance figures for a wallet from its open
// positions. The raw positions are cached per wallet, so the global and
// per-market views share one fetch. It implements flow.StatsProvider.
type Provider struct {
	positions PositionsClient
	cache     *cache
	breaker   *gobreaker.CircuitBreaker
	log       *logrus.Logger
}

// NewProvider creates a Provider. ttl <= 0 falls back to the 300s default.
func NewProvider(positions PositionsClient, ttl time.Duration, log *logrus.Logger) *Provider {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	settings := gobreaker.Settings{
		Name:    "wallet-stats",
		Timeout: 30 * time.Second,
	}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}

	return &Provider{
		positions: positions,
		cache:     newCache(ttl),
		breaker:   gobreaker.NewCircuitBreaker(settings),
		log:       log,
	}
}

// GlobalStats returns a wallet's account-wide performance. An open breaker or
// a failed fetch surfaces as an error so the caller can degrade that wallet
// to zero values.
func (p *Provider) GlobalStats(ctx context.Context, wallet string) (flow.GlobalStats, error) {
	positions, err := p.positionsFor(ctx, wallet)
	if err != nil {
		return flow.GlobalStats{}, err
	}
	return computeGlobal(positions), nil
}

// HolderStats returns the wallet's performance on one market alongside its
// account-wide figures. A wallet with no position on the market reports zero
// market PnL and ROI.
func (p *Provider) HolderStats(ctx context.Context, wallet, conditionID string) (HolderStats, error) {
	positions, err := p.positionsFor(ctx, wallet)
	if err != nil {
		return HolderStats{}, err
	}

	stats := HolderStats{Global: computeGlobal(positions)}
	for i := range positions {
		if positions[i].ConditionID == conditionID {
			stats.MarketPnL = positions[i].CashPnL
			stats.MarketROI = positions[i].PercentPnL
			break
		}
	}
	return stats, nil
}

func (p *Provider) positionsFor(ctx context.Context, wallet string) ([]dataapi.Position, error) {
	if positions, ok := p.cache.get(wallet); ok {
		metrics.RecordCacheLookup("user_stats", true)
		return positions, nil
	}
	metrics.RecordCacheLookup("user_stats", false)

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.positions.GetPositions(ctx, wallet, positionsLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}

	positions := out.([]dataapi.Position)
	p.cache.set(wallet, positions)

	p.log.WithFields(logrus.Fields{
		"wallet":    wallet,
		"positions": len(positions),
	}).Debug("Fetched wallet positions")

	return positions, nil
}

// computeGlobal folds a positions scan into account-wide figures: PnL is the
// cash PnL sum, ROI is PnL over the invested cost basis, balance is the sum
// of current position values.
func computeGlobal(positions []dataapi.Position) flow.GlobalStats {
	var stats flow.GlobalStats
	var invested float64

	for i := range positions {
		pos := &positions[i]
		stats.PnL += pos.CashPnL
		stats.Balance += pos.CurrentValue
		if pos.InitialValue > 0 {
			invested += pos.InitialValue
		}
	}

	if invested > 0 {
		stats.ROI = stats.PnL / invested * 100
	}

	return stats
}
