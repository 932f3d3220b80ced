package flow

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func epoch(offset time.Duration) string {
	return strconv.FormatInt(time.Now().UTC().Add(offset).Unix(), 10)
}

func TestClassifyBias(t *testing.T) {
	tests := []struct {
		name        string
		bullish     float64
		bearish     float64
		want        string
		description string
	}{
		{
			name:        "just above the ratio",
			bullish:     111,
			bearish:     100,
			want:        BiasBullish,
			description: "111 > 100*1.1 by a hair",
		},
		{
			name:        "exactly at the ratio",
			bullish:     110,
			bearish:     100,
			want:        BiasMixed,
			description: "110 > 110 is false, boundary stays mixed",
		},
		{
			name:        "just below the ratio",
			bullish:     109,
			bearish:     100,
			want:        BiasMixed,
			description: "dominance under 1.1x is mixed",
		},
		{
			name:        "bearish mirror",
			bullish:     100,
			bearish:     111,
			want:        BiasBearish,
			description: "same boundary on the other side",
		},
		{
			name:        "one-sided",
			bullish:     250,
			bearish:     0,
			want:        BiasBullish,
			description: "anything beats zero",
		},
		{
			name:        "no activity",
			bullish:     0,
			bearish:     0,
			want:        BiasMixed,
			description: "0 > 0 both ways is false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyBias(tt.bullish, tt.bearish)
			if got != tt.want {
				t.Errorf("classifyBias(%v, %v) = %q, want %q\nDescription: %s",
					tt.bullish, tt.bearish, got, tt.want, tt.description)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "epoch seconds",
			raw:  "1700000000",
			want: time.Unix(1700000000, 0).UTC(),
		},
		{
			name: "epoch milliseconds",
			raw:  "1700000000000",
			want: time.UnixMilli(1700000000000).UTC(),
		},
		{
			name: "iso with zone",
			raw:  "2023-11-14T22:13:20Z",
			want: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		},
		{
			name: "iso without zone",
			raw:  "2023-11-14T22:13:20",
			want: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		},
		{name: "garbage", raw: "tomorrow-ish", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTimestamp(%q) expected error, got %v", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimestamp(%q) unexpected error: %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromTradesAccumulation(t *testing.T) {
	a := NewAggregator(nil, testLogger(), Options{})

	trades := []TradeRecord{
		{Market: "will-x-happen", Wallet: "0xabc", Name: "whale_one", Side: "BUY", Outcome: "Yes", Size: 100, Price: 0.5, Timestamp: epoch(-2 * time.Hour)},
		{Market: "WILL-X-HAPPEN", Wallet: "0xabc", Name: "renamed_later", Side: "SELL", Outcome: "No", Size: 40, Price: 0.5, Timestamp: epoch(-1 * time.Hour)},
		{Market: "will-x-happen", Wallet: "0xdef", Side: "BUY", Outcome: "No", Size: 10, Price: 0.4, Timestamp: epoch(-3 * time.Hour)},
	}

	got := a.FromTrades(context.Background(), "will-x-happen", trades)

	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}

	top := got[0]
	if top.Address != "0xabc" {
		t.Fatalf("expected 0xabc ranked first by volume, got %s", top.Address)
	}
	if top.TradeCount != 2 {
		t.Errorf("TradeCount = %d, want 2", top.TradeCount)
	}
	if top.Volume != 70 {
		t.Errorf("Volume = %v, want 70", top.Volume)
	}
	// Both fills are bullish: a YES buy and a NO sell.
	if top.BullishVol != 70 || top.BearishVol != 0 {
		t.Errorf("bullish/bearish = %v/%v, want 70/0", top.BullishVol, top.BearishVol)
	}
	if top.Bias != BiasBullish {
		t.Errorf("Bias = %q, want bullish", top.Bias)
	}
	if top.Name != "whale_one" {
		t.Errorf("Name = %q, want first-seen name whale_one", top.Name)
	}

	second := got[1]
	if second.Bias != BiasBearish {
		t.Errorf("NO buy should be bearish, got %q", second.Bias)
	}
}

func TestFromTradesFilters(t *testing.T) {
	a := NewAggregator(nil, testLogger(), Options{Lookback: 48 * time.Hour})

	trades := []TradeRecord{
		{Market: "target", Wallet: "0x1", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
		{Market: "other-market", Wallet: "0x2", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
		{Market: "target", Wallet: "0x3", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-72 * time.Hour)},
		{Market: "target", Wallet: "0x4", Side: "REDEEM", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
		{Market: "target", Wallet: "0x5", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: "not-a-time"},
		{Market: "target", Wallet: "", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
	}

	got := a.FromTrades(context.Background(), "TARGET", trades)

	if len(got) != 1 {
		t.Fatalf("expected only the clean in-window record to survive, got %d", len(got))
	}
	if got[0].Address != "0x1" {
		t.Errorf("survivor = %s, want 0x1", got[0].Address)
	}
}

func TestNotionalPrefersExplicitValue(t *testing.T) {
	tests := []struct {
		name  string
		trade TradeRecord
		want  float64
	}{
		{
			name:  "explicit value wins",
			trade: TradeRecord{Value: 1234.5, Size: 10, Price: 0.5},
			want:  1234.5,
		},
		{
			name:  "falls back to size times price",
			trade: TradeRecord{Size: 200, Price: 0.25},
			want:  50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notional(tt.trade); got != tt.want {
				t.Errorf("notional() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromTradesTopN(t *testing.T) {
	a := NewAggregator(nil, testLogger(), Options{TopN: 3})

	var trades []TradeRecord
	for i := 1; i <= 6; i++ {
		trades = append(trades, TradeRecord{
			Market:    "m",
			Wallet:    fmt.Sprintf("0x%d", i),
			Side:      "BUY",
			Outcome:   "Yes",
			Size:      float64(i * 10),
			Price:     1,
			Timestamp: epoch(-time.Hour),
		})
	}

	got := a.FromTrades(context.Background(), "m", trades)

	if len(got) != 3 {
		t.Fatalf("expected top 3, got %d", len(got))
	}
	for i, want := range []string{"0x6", "0x5", "0x4"} {
		if got[i].Address != want {
			t.Errorf("rank %d = %s, want %s", i, got[i].Address, want)
		}
	}
}

type fakeStats struct {
	stats map[string]GlobalStats
	err   error
}

func (f *fakeStats) GlobalStats(_ context.Context, wallet string) (GlobalStats, error) {
	if f.err != nil {
		return GlobalStats{}, f.err
	}
	return f.stats[wallet], nil
}

func TestEnrichment(t *testing.T) {
	provider := &fakeStats{stats: map[string]GlobalStats{
		"0xabc": {PnL: 1500, ROI: 12.5, Balance: 9000},
	}}
	a := NewAggregator(provider, testLogger(), Options{})

	trades := []TradeRecord{
		{Market: "m", Wallet: "0xabc", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
	}

	got := a.FromTrades(context.Background(), "m", trades)

	if len(got) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(got))
	}
	if got[0].GlobalPnL != 1500 || got[0].GlobalROI != 12.5 || got[0].Balance != 9000 {
		t.Errorf("enrichment not applied: %+v", got[0])
	}
}

func TestEnrichmentFailureDegradesToZero(t *testing.T) {
	provider := &fakeStats{err: fmt.Errorf("stats api down")}
	a := NewAggregator(provider, testLogger(), Options{})

	trades := []TradeRecord{
		{Market: "m", Wallet: "0xabc", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
	}

	got := a.FromTrades(context.Background(), "m", trades)

	if len(got) != 1 {
		t.Fatalf("enrichment failure must not drop the wallet, got %d snapshots", len(got))
	}
	if got[0].GlobalPnL != 0 || got[0].GlobalROI != 0 || got[0].Balance != 0 {
		t.Errorf("failed enrichment should zero the stats: %+v", got[0])
	}
	if got[0].Volume != 5 {
		t.Errorf("ranking figures must survive enrichment failure, volume = %v", got[0].Volume)
	}
}

func TestFromHolders(t *testing.T) {
	a := NewAggregator(nil, testLogger(), Options{})

	holders := []HolderRecord{
		{Wallet: "0xaaa", Name: "larry", Amount: 5000, OutcomeIndex: 0},
		{Wallet: "0xaaa", Amount: 100, OutcomeIndex: 1},
		{Wallet: "0xbbb", Name: "mo", Amount: 3000, OutcomeIndex: 1},
		{Wallet: "0xccc", Amount: 0, OutcomeIndex: 0},
	}

	got := a.FromHolders(context.Background(), holders)

	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots (dedup + zero amount dropped), got %d", len(got))
	}

	top := got[0]
	if top.Address != "0xaaa" || top.Volume != 5100 {
		t.Fatalf("top holder wrong: %+v", top)
	}
	if top.Bias != BiasBullish {
		t.Errorf("5000 yes vs 100 no should be bullish, got %q", top.Bias)
	}
	if got[1].Bias != BiasBearish {
		t.Errorf("pure no holder should be bearish, got %q", got[1].Bias)
	}
}

func TestAggregatePrefersHolders(t *testing.T) {
	a := NewAggregator(nil, testLogger(), Options{})

	holders := []HolderRecord{{Wallet: "0xholder", Amount: 10, OutcomeIndex: 0}}
	trades := []TradeRecord{
		{Market: "m", Wallet: "0xtrader", Side: "BUY", Outcome: "Yes", Size: 10, Price: 0.5, Timestamp: epoch(-time.Hour)},
	}

	got := a.Aggregate(context.Background(), "m", holders, trades)
	if len(got) != 1 || got[0].Address != "0xholder" {
		t.Fatalf("holders path should win when available: %+v", got)
	}

	got = a.Aggregate(context.Background(), "m", nil, trades)
	if len(got) != 1 || got[0].Address != "0xtrader" {
		t.Fatalf("trade fallback should engage when holders are empty: %+v", got)
	}
}
