package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/storage"
)

func testStoredMarket() *storage.Market {
	return &storage.Market{
		MarketID:      "0xabc",
		Slug:          "fed-cuts-rates-november",
		Title:         "Will the Fed cut rates in November?",
		Description:   "Resolves YES if the FOMC lowers the target range.",
		Category:      "Economics",
		Volume24h:     120000,
		Volume7d:      800000,
		Liquidity:     45000,
		YesPercentage: 62.5,
		IsActive:      true,
		EndDateTS:     time.Date(2026, 11, 3, 12, 0, 0, 0, time.UTC).Unix(),
		ImageURL:      "https://example.com/fed.png",
		CLOBTokenIDs:  `["7115","8221"]`,
		UpdatedTS:     time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC).Unix(),
	}
}

func TestNewMarketView(t *testing.T) {
	view := newMarketView(testStoredMarket())

	assert.Equal(t, "0xabc", view.ID)
	assert.Equal(t, "fed-cuts-rates-november", view.Slug)
	assert.Equal(t, "Will the Fed cut rates in November?", view.Title)
	assert.Equal(t, "Economics", view.Category)
	assert.Equal(t, 62.5, view.YesPercentage)
	assert.True(t, view.IsActive)
	require.NotNil(t, view.EndDate)
	assert.Equal(t, time.Date(2026, 11, 3, 12, 0, 0, 0, time.UTC), *view.EndDate)
	assert.Equal(t, time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC), view.LastUpdated)
}

func TestNewMarketViewNoEndDate(t *testing.T) {
	market := testStoredMarket()
	market.EndDateTS = 0

	assert.Nil(t, newMarketView(market).EndDate)
}

func TestListMarketsIncludesRefreshCheckpoint(t *testing.T) {
	store := newFakeStore()
	store.list = []storage.Market{*testStoredMarket()}
	store.state[storage.StateMarketsUpdated] = "2026-08-26T10:15:00Z"

	rec := doRequest(t, newTestServer(Deps{Store: store}), http.MethodGet, "/api/markets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp marketListResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Markets, 1)
	assert.Equal(t, "0xabc", resp.Markets[0].ID)
	require.NotNil(t, resp.LastUpdated)
	assert.Equal(t, time.Date(2026, 8, 26, 10, 15, 0, 0, time.UTC), resp.LastUpdated.UTC())
}

func TestListMarketsToleratesBadCheckpoint(t *testing.T) {
	store := newFakeStore()
	store.state[storage.StateMarketsUpdated] = "not-a-timestamp"

	rec := doRequest(t, newTestServer(Deps{Store: store}), http.MethodGet, "/api/markets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp marketListResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Markets, "empty listing should still be an array")
	assert.Nil(t, resp.LastUpdated)
}

func TestGetMarketFallsBackToSlug(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())

	rec := doRequest(t, newTestServer(Deps{Store: store}), http.MethodGet, "/api/markets/fed-cuts-rates-november", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view marketView
	decodeBody(t, rec, &view)
	assert.Equal(t, "0xabc", view.ID)
}

func TestGetMarketNotFound(t *testing.T) {
	rec := doRequest(t, newTestServer(Deps{}), http.MethodGet, "/api/markets/0xmissing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Market not found"}`, rec.Body.String())
}

func TestMarketHistoryRejectsUnknownTimeframe(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())

	rec := doRequest(t, newTestServer(Deps{Store: store}), http.MethodGet, "/api/markets/0xabc/history?timeframe=3Y", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"timeframe must be one of 24H, 7D, 1M, ALL"}`, rec.Body.String())
}

func TestMarketHistoryMapsSampledPoints(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	prices := &fakePriceSource{series: map[string][]clobapi.PricePoint{
		clobapi.Interval7d: {
			{Timestamp: 1756100000, Price: 0.5},
			{Timestamp: 1756110000, Price: 0.75},
		},
	}}

	rec := doRequest(t, newTestServer(Deps{Store: store, Prices: prices}),
		http.MethodGet, "/api/markets/0xabc/history?timeframe=7D", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "0xabc", resp.MarketID)
	assert.Equal(t, "7D", resp.Timeframe)
	require.Len(t, resp.History, 2)
	assert.Equal(t, time.Unix(1756100000, 0).UTC(), resp.History[0].Timestamp)
	assert.Equal(t, 50.0, resp.History[0].YesPercentage)
	assert.Equal(t, 75.0, resp.History[1].YesPercentage)
	assert.Equal(t, 0.0, resp.History[1].Volume)
}

func TestMarketHistoryDefaultsTo24H(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	prices := &fakePriceSource{series: map[string][]clobapi.PricePoint{
		clobapi.Interval24h: {{Timestamp: 1756100000, Price: 0.625}},
	}}

	rec := doRequest(t, newTestServer(Deps{Store: store, Prices: prices}),
		http.MethodGet, "/api/markets/0xabc/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "24H", resp.Timeframe)
	require.Len(t, resp.History, 1)
	assert.Equal(t, 62.5, resp.History[0].YesPercentage)
}

func TestMarketHistoryFallsBackWithoutTokenIDs(t *testing.T) {
	market := testStoredMarket()
	market.CLOBTokenIDs = ""
	store := newFakeStore()
	store.addMarket(market)

	rec := doRequest(t, newTestServer(Deps{Store: store}), http.MethodGet, "/api/markets/0xabc/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	decodeBody(t, rec, &resp)

	require.Len(t, resp.History, 1)
	assert.Equal(t, 62.5, resp.History[0].YesPercentage)
	assert.Equal(t, 120000.0, resp.History[0].Volume)
	assert.Equal(t, time.Unix(market.UpdatedTS, 0).UTC(), resp.History[0].Timestamp)
}

func TestMarketHistoryFallsBackOnFeedError(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	prices := &fakePriceSource{err: assert.AnError}

	rec := doRequest(t, newTestServer(Deps{Store: store, Prices: prices}),
		http.MethodGet, "/api/markets/0xabc/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	decodeBody(t, rec, &resp)

	require.Len(t, resp.History, 1)
	assert.Equal(t, 62.5, resp.History[0].YesPercentage)
}

func TestCurrentPricePointWithoutRefreshUsesNow(t *testing.T) {
	market := testStoredMarket()
	market.UpdatedTS = 0

	points := currentPricePoint(market)

	require.Len(t, points, 1)
	assert.WithinDuration(t, time.Now().UTC(), points[0].Timestamp, time.Minute)
}
