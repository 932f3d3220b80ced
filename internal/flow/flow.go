// Package flow turns raw per-wallet trade and holder records into a ranked,
// deduplicated view of the notable actors on a market.
package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bias classifications for a wallet's net directional activity.
const (
	BiasBullish = "bullish"
	BiasBearish = "bearish"
	BiasMixed   = "mixed"
)

// biasRatio is the dominance a side needs over the other before a wallet is
// classified directional. Kept at exactly 1.1; downstream consumers depend on
// the boundary.
const biasRatio = 1.1

// TradeRecord is one raw fill as delivered by a trade feed.
type TradeRecord struct {
	Market    string
	Wallet    string
	Name      string
	Side      string
	Outcome   string
	Size      float64
	Price     float64
	Value     float64
	Timestamp string
}

// HolderRecord is one wallet's current position in a market outcome token.
type HolderRecord struct {
	Wallet       string
	Name         string
	Amount       float64
	OutcomeIndex int
}

// TraderSnapshot is the aggregated activity of a single wallet on a market.
type TraderSnapshot struct {
	Address      string
	Name         string
	Volume       float64
	TradeCount   int
	BullishVol   float64
	BearishVol   float64
	Bias         string
	LastActivity time.Time
	GlobalPnL    float64
	GlobalROI    float64
	Balance      float64
}

func classifyBias(bullish, bearish float64) string {
	switch {
	case bullish > bearish*biasRatio:
		return BiasBullish
	case bearish > bullish*biasRatio:
		return BiasBearish
	default:
		return BiasMixed
	}
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// BullishFill reports whether a fill expresses a bullish view on the market:
// buying the yes/up side or selling the no/down side.
func BullishFill(side, outcome string) bool {
	o := strings.ToLower(strings.TrimSpace(outcome))
	buying := strings.EqualFold(side, "BUY")
	yesSide := o == "yes" || o == "up"
	noSide := o == "no" || o == "down"
	return (buying && yesSide) || (!buying && noSide)
}

// notional prefers an explicit venue-provided value and falls back to
// size times price.
func notional(r TradeRecord) float64 {
	if r.Value > 0 {
		return r.Value
	}
	return r.Size * r.Price
}

// parseTimestamp accepts epoch seconds, epoch milliseconds, or an ISO 8601
// string.
func parseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v >= 1e12 {
			return time.UnixMilli(int64(v)).UTC(), nil
		}
		return time.Unix(int64(v), 0).UTC(), nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable timestamp %q", raw)
}
