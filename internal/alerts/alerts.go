package alerts

import (
	"context"
	"time"
)

// Severity represents notice severity
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityAlert Severity = "ALERT"
)

// SeverityFor grades a whale trade's notional against the notice threshold:
// ALERT at 5x the threshold, WARN at 2.5x, INFO otherwise.
func SeverityFor(notionalUSD, thresholdUSD float64) Severity {
	switch {
	case notionalUSD >= 5*thresholdUSD:
		return SeverityAlert
	case notionalUSD >= 2.5*thresholdUSD:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// Notice contains all information for a whale trade notice
type Notice struct {
	Severity       Severity
	MarketID       string
	MarketTitle    string
	MarketSlug     string
	MarketURL      string
	WalletAddress  string
	WalletShort    string // Shortened for display
	TraderName     string // Display name when the wallet has one
	WalletAgeDays  int    // Days since the wallet's first activity, -1 when unknown
	Side           string
	Outcome        string
	IsBullish      bool
	NotionalUSD    float64
	Price          float64
	TradeHash      string
	TradeHashShort string // Shortened for display
	Timestamp      time.Time
	Environment    string
}

// Direction renders the trade's market read
func (n *Notice) Direction() string {
	if n.IsBullish {
		return "Bullish"
	}
	return "Bearish"
}

// FreshWallet reports whether the wallet first became active within the last
// week. A whale-sized trade from a days-old wallet reads very differently
// from the same trade by an established account.
func (n *Notice) FreshWallet() bool {
	return n.WalletAgeDays >= 0 && n.WalletAgeDays < 7
}

// Sender defines the interface for notice senders
type Sender interface {
	Send(ctx context.Context, notice *Notice) error
}
