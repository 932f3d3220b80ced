package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatefloor/internal/polymarket/dataapi"
)

func TestWhaleViewsFiltersAndMaps(t *testing.T) {
	const (
		slug   = "btc-100k-2026"
		cutoff = int64(1756000000)
		base   = int64(1756166400) // 2025-08-26T00:00:00Z
	)

	trades := []dataapi.Trade{
		{
			ProxyWallet:     "0x1234567890abcdef1234567890abcdef12345678",
			Side:            "BUY",
			Size:            150.256,
			Price:           0.5,
			Timestamp:       base,
			Outcome:         "Yes",
			Slug:            slug,
			Name:            "bigfish",
			TransactionHash: "0xdeadbeefdeadbeefdeadbeefdeadbeef",
		},
		// Tagged with another market's slug.
		{ProxyWallet: "0xw", Side: "BUY", Size: 500, Price: 0.5, Timestamp: base, Outcome: "Yes", Slug: "other-market"},
		// No timestamp.
		{ProxyWallet: "0xw", Side: "BUY", Size: 500, Price: 0.5, Outcome: "Yes", Slug: slug},
		// Older than the lookback window.
		{ProxyWallet: "0xw", Side: "BUY", Size: 500, Price: 0.5, Timestamp: cutoff - 1, Outcome: "Yes", Slug: slug},
		// Not a plain buy or sell.
		{ProxyWallet: "0xw", Side: "MERGE", Size: 500, Price: 0.5, Timestamp: base, Outcome: "Yes", Slug: slug},
		// Below the volume floor.
		{ProxyWallet: "0xw", Side: "BUY", Size: 10, Price: 0.5, Timestamp: base, Outcome: "Yes", Slug: slug},
		// Untagged slug is trusted, anonymous wallet, lowercase side.
		{Side: "sell", Size: 400, Price: 0.25, Timestamp: base + 3600, Outcome: "No", TransactionHash: "0xshort"},
	}

	views := whaleViews(slug, trades, 100.0, cutoff)

	require.Len(t, views, 2)

	// Newest first.
	sell := views[0]
	assert.Equal(t, "0xshort", sell.TradeID)
	assert.Equal(t, "Unknown", sell.Address)
	assert.Nil(t, sell.Name)
	assert.Equal(t, "SELL", sell.Side)
	assert.True(t, sell.IsBullish, "selling NO is bullish")
	assert.Equal(t, 100.0, sell.Volume)
	assert.Equal(t, "2025-08-26T01:00:00Z", sell.Timestamp)

	buy := views[1]
	assert.Equal(t, "0xdeadbeefdeadbee", buy.TradeID)
	assert.Equal(t, "0x1234567890abcdef1234567890abcdef12345678", buy.Address)
	require.NotNil(t, buy.Name)
	assert.Equal(t, "bigfish", *buy.Name)
	assert.Equal(t, "BUY", buy.Side)
	assert.True(t, buy.IsBullish)
	assert.Equal(t, 150.26, buy.Size)
	assert.Equal(t, 0.5, buy.Price)
	assert.Equal(t, 75.13, buy.Volume)
	assert.Equal(t, "2025-08-26T00:00:00Z", buy.Timestamp)
}

func TestWhaleViewsCapsAtFifty(t *testing.T) {
	base := int64(1756166400)
	trades := make([]dataapi.Trade, 0, 55)
	for i := 0; i < 55; i++ {
		trades = append(trades, dataapi.Trade{
			ProxyWallet: fmt.Sprintf("0x%02d", i),
			Side:        "BUY",
			Size:        1000,
			Price:       0.5,
			Timestamp:   base + int64(i),
			Outcome:     "Yes",
		})
	}

	views := whaleViews("any", trades, 100.0, 0)

	require.Len(t, views, maxWhaleTrades)
	assert.Equal(t, "0x54", views[0].Address, "newest fill should rank first")
}

func TestShortTradeID(t *testing.T) {
	assert.Equal(t, "0xshort", shortTradeID("0xshort"))
	assert.Equal(t, "1234567890123456", shortTradeID("1234567890123456"))
	assert.Equal(t, "0xabcdefabcdefab", shortTradeID("0xabcdefabcdefab"))
	assert.Equal(t, "0xdeadbeefdeadbee", shortTradeID("0xdeadbeefdeadbeefdeadbeef"))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 78.13, roundTo(78.1285, 2))
	assert.Equal(t, 0.5513, roundTo(0.55126, 4))
	assert.Equal(t, 100.0, roundTo(100, 2))
}

func TestMarketWhalesDegradesToEmptyOnFeedError(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	trades := &fakeTradeSource{tradesErr: assert.AnError}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades}),
		http.MethodGet, "/api/markets/0xabc/whales", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMarketWhalesSkipsFetchWithoutSlug(t *testing.T) {
	market := testStoredMarket()
	market.Slug = ""
	store := newFakeStore()
	store.addMarket(market)
	trades := &fakeTradeSource{}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades}),
		http.MethodGet, "/api/markets/0xabc/whales", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, trades.gotParams.Market, "no feed call should be made")
}

func TestMarketWhalesRejectsBadParams(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	srv := newTestServer(Deps{Store: store})

	rec := doRequest(t, srv, http.MethodGet, "/api/markets/0xabc/whales?min_volume=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"invalid min_volume"}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/api/markets/0xabc/whales?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"invalid limit"}`, rec.Body.String())
}

func TestMarketWhalesQueriesTheMarketSlug(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	trades := &fakeTradeSource{trades: []dataapi.Trade{{
		ProxyWallet: "0xwhale",
		Side:        "BUY",
		Size:        50000,
		Price:       0.62,
		Timestamp:   time.Now().UTC().Add(-1 * time.Hour).Unix(),
		Outcome:     "Yes",
		Slug:        "fed-cuts-rates-november",
	}}}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades}),
		http.MethodGet, "/api/markets/0xabc/whales?limit=250", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "fed-cuts-rates-november", trades.gotParams.Market)
	assert.Equal(t, 250, trades.gotParams.Limit)

	var views []whaleView
	decodeBody(t, rec, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "0xwhale", views[0].Address)
	assert.Equal(t, 31000.0, views[0].Volume)
}
