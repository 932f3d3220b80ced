package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatefloor/internal/flow"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/stats"
)

func TestHolderViewsSplitsAndRanks(t *testing.T) {
	groups := []dataapi.TokenHolders{
		{Token: "7115", Holders: []dataapi.Holder{
			{ProxyWallet: "0xsmall", Pseudonym: "Quiet-Owl", Amount: 120, OutcomeIndex: 0},
			{ProxyWallet: "", Amount: 999999, OutcomeIndex: 0}, // no wallet, dropped
			{ProxyWallet: "0xbig", Name: "bigfish", Amount: 5000, OutcomeIndex: 0, ProfileImage: "https://example.com/fish.png"},
		}},
		{Token: "8221", Holders: []dataapi.Holder{
			{ProxyWallet: "0xbear", Amount: 700, OutcomeIndex: 1},
		}},
	}

	yes, no := holderViews(groups, nil)

	require.Len(t, yes, 2)
	assert.Equal(t, "0xbig", yes[0].Address)
	assert.Equal(t, "bigfish", yes[0].Name)
	assert.Equal(t, 5000.0, yes[0].Amount)
	require.NotNil(t, yes[0].Img)
	assert.Equal(t, "https://example.com/fish.png", *yes[0].Img)

	assert.Equal(t, "0xsmall", yes[1].Address)
	assert.Equal(t, "Quiet-Owl", yes[1].Name)
	assert.Nil(t, yes[1].Img)
	assert.Equal(t, 0.0, yes[1].MarketPnL, "unenriched holders carry zero stats")

	require.Len(t, no, 1)
	assert.Equal(t, "0xbear", no[0].Address)
	assert.Equal(t, "Unknown", no[0].Name)
}

func TestHolderViewsCapsEachSide(t *testing.T) {
	var holders []dataapi.Holder
	for i := 0; i < 25; i++ {
		holders = append(holders, dataapi.Holder{
			ProxyWallet:  fmt.Sprintf("0x%02d", i),
			Amount:       float64(100 + i),
			OutcomeIndex: 0,
		})
	}
	groups := []dataapi.TokenHolders{{Holders: holders}}

	yes, no := holderViews(groups, nil)

	require.Len(t, yes, topHoldersPerSide)
	assert.Equal(t, "0x24", yes[0].Address, "largest position should rank first")
	assert.Empty(t, no)
	assert.NotNil(t, no, "empty side should still be an array")
}

func TestHolderViewsAppliesEnrichment(t *testing.T) {
	groups := []dataapi.TokenHolders{{Holders: []dataapi.Holder{
		{ProxyWallet: "0xbig", Amount: 5000, OutcomeIndex: 0},
	}}}
	enriched := map[string]stats.HolderStats{
		"0xbig": {
			MarketPnL: 1250.5,
			MarketROI: 31.4,
			Global:    flow.GlobalStats{PnL: 84000, ROI: 12.7},
		},
	}

	yes, _ := holderViews(groups, enriched)

	require.Len(t, yes, 1)
	assert.Equal(t, 1250.5, yes[0].MarketPnL)
	assert.Equal(t, 31.4, yes[0].MarketROI)
	assert.Equal(t, 84000.0, yes[0].GlobalPnL)
	assert.Equal(t, 12.7, yes[0].GlobalROI)
}

func TestMarketHoldersDegradesOnFeedError(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	trades := &fakeTradeSource{holdersErr: assert.AnError}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades}),
		http.MethodGet, "/api/markets/0xabc/holders", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"yes_holders":[],"no_holders":[]}`, rec.Body.String())
}

func TestMarketHoldersNotFound(t *testing.T) {
	rec := doRequest(t, newTestServer(Deps{}), http.MethodGet, "/api/markets/0xmissing/holders", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Market not found"}`, rec.Body.String())
}

func TestMarketHoldersEnrichesThroughProvider(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	trades := &fakeTradeSource{holders: []dataapi.TokenHolders{
		{Holders: []dataapi.Holder{
			{ProxyWallet: "0xbig", Name: "bigfish", Amount: 5000, OutcomeIndex: 0},
			{ProxyWallet: "0xbear", Amount: 700, OutcomeIndex: 1},
		}},
	}}
	wallets := &fakeWalletStats{stats: map[string]stats.HolderStats{
		"0xbig": {MarketPnL: 900, MarketROI: 18, Global: flow.GlobalStats{PnL: 42000, ROI: 9.5}},
	}}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades, Wallets: wallets}),
		http.MethodGet, "/api/markets/0xabc/holders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp holdersResponse
	decodeBody(t, rec, &resp)

	require.Len(t, resp.Yes, 1)
	assert.Equal(t, "0xbig", resp.Yes[0].Address)
	assert.Equal(t, 900.0, resp.Yes[0].MarketPnL)
	assert.Equal(t, 42000.0, resp.Yes[0].GlobalPnL)

	require.Len(t, resp.No, 1)
	assert.Equal(t, 0.0, resp.No[0].GlobalPnL, "wallet without stats keeps zeros")
}

func TestMarketHoldersToleratesStatsFailures(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	trades := &fakeTradeSource{holders: []dataapi.TokenHolders{
		{Holders: []dataapi.Holder{{ProxyWallet: "0xbig", Amount: 5000, OutcomeIndex: 0}}},
	}}
	wallets := &fakeWalletStats{err: assert.AnError}

	rec := doRequest(t, newTestServer(Deps{Store: store, Trades: trades, Wallets: wallets}),
		http.MethodGet, "/api/markets/0xabc/holders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp holdersResponse
	decodeBody(t, rec, &resp)

	require.Len(t, resp.Yes, 1)
	assert.Equal(t, 0.0, resp.Yes[0].MarketPnL)
}
