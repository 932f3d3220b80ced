package server

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debatefloor/internal/debate"
	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/polymarket/gammaapi"
)

func TestDeliberateRejectsMalformedBody(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())

	rec := doRequest(t, newTestServer(Deps{Store: store}),
		http.MethodPost, "/api/markets/0xabc/deliberate", strings.NewReader("{bad"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"invalid request body"}`, rec.Body.String())
}

func TestDeliberateRejectsUnknownStage(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())

	rec := doRequest(t, newTestServer(Deps{Store: store}),
		http.MethodPost, "/api/markets/0xabc/deliberate", strings.NewReader(`{"stages":{"bogus":true}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"unknown stage id \"bogus\""}`, rec.Body.String())
}

func TestDeliberateMarketNotFound(t *testing.T) {
	rec := doRequest(t, newTestServer(Deps{}),
		http.MethodPost, "/api/markets/0xmissing/deliberate", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Market not found"}`, rec.Body.String())
}

func TestDeliberateRunsThePanel(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	prices := &fakePriceSource{series: map[string][]clobapi.PricePoint{
		clobapi.Interval24h: {{Timestamp: 1, Price: 0.5}, {Timestamp: 2, Price: 0.625}},
		clobapi.Interval7d:  {{Timestamp: 1, Price: 0.25}, {Timestamp: 2, Price: 0.75}},
	}}
	trades := &fakeTradeSource{holders: []dataapi.TokenHolders{
		{Holders: []dataapi.Holder{
			{ProxyWallet: "0xbig", Name: "bigfish", Amount: 5000, OutcomeIndex: 0},
			{ProxyWallet: "0xbear", Amount: 700, OutcomeIndex: 1},
		}},
	}}
	panel := &fakeDeliberator{
		verdict: "Buy YES. Confidence: 70%",
		contribs: []debate.Contribution{
			{Author: "Statistics Expert", Content: "Momentum favors YES."},
			{Author: "Moderator", Content: "Buy YES. Confidence: 70%"},
		},
	}

	body := strings.NewReader(`{"stages":{"news":false,"macro":false,"contrarian":false}}`)
	rec := doRequest(t, newTestServer(Deps{Store: store, Prices: prices, Trades: trades, Debates: panel}),
		http.MethodPost, "/api/markets/0xabc/deliberate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp deliberateResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "0xabc", resp.MarketID)
	assert.Len(t, resp.RunID, 36, "run id should be a UUID")
	assert.Equal(t, "Buy YES. Confidence: 70%", resp.Verdict)
	assert.Len(t, resp.Contributions, 2)
	assert.Equal(t, []string{
		debate.StageQuantitative,
		debate.StageTimeDecay,
		debate.StageTraderFlow,
	}, resp.EnabledStages)

	// The pipeline saw the full market picture.
	require.NotNil(t, panel.gotState)
	assert.Equal(t, "Will the Fed cut rates in November?", panel.gotState.Market.Question)
	assert.Equal(t, 62.5, panel.gotState.Market.YesPrice)
	assert.Equal(t, "2026-11-03T12:00:00Z", panel.gotState.Market.EndDate)
	assert.Equal(t, []float64{50, 62.5}, panel.gotState.Prices24h)
	assert.Equal(t, []float64{25, 75}, panel.gotState.Prices7d)

	require.Len(t, panel.gotState.Traders, 2)
	assert.Equal(t, "0xbig", panel.gotState.Traders[0].Address, "largest holder leads the flow summary")
}

func TestDeliberateEmptyBodyEnablesEverything(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	panel := &fakeDeliberator{verdict: "Stay Neutral"}

	rec := doRequest(t, newTestServer(Deps{Store: store, Debates: panel}),
		http.MethodPost, "/api/markets/0xabc/deliberate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp deliberateResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, []string{
		debate.StageQuantitative,
		debate.StageTimeDecay,
		debate.StageTraderFlow,
		debate.StageNews,
		debate.StageMacro,
		debate.StageContrarian,
	}, resp.EnabledStages)
}

func TestDeliberateAdoptsUpstreamMarket(t *testing.T) {
	store := newFakeStore()
	end := time.Date(2026, 12, 31, 12, 0, 0, 0, time.UTC)
	gamma := &fakeGamma{bySlug: map[string]*gammaapi.Market{
		"btc-100k-2026": {
			ID:            "123",
			ConditionID:   "0xcond",
			Slug:          "btc-100k-2026",
			Question:      "Will Bitcoin hit $100k in 2026?",
			Active:        true,
			Volume24h:     50000,
			EndDateISO:    end.Format(time.RFC3339),
			OutcomePrices: `["0.62","0.38"]`,
			CLOBTokenIDs:  `["7115","8221"]`,
		},
	}}
	panel := &fakeDeliberator{verdict: "Buy YES"}

	rec := doRequest(t, newTestServer(Deps{Store: store, Gamma: gamma, Debates: panel}),
		http.MethodPost, "/api/markets/btc-100k-2026/deliberate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp deliberateResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "0xcond", resp.MarketID, "condition id becomes the canonical id")

	require.Len(t, store.upserted, 1)
	adopted := store.upserted[0]
	assert.Equal(t, "0xcond", adopted.MarketID)
	assert.Equal(t, "btc-100k-2026", adopted.Slug)
	assert.Equal(t, 62.0, adopted.YesPercentage)
	assert.Equal(t, end.Unix(), adopted.EndDateTS)
}

func TestDeliberateReportsPipelineFailure(t *testing.T) {
	store := newFakeStore()
	store.addMarket(testStoredMarket())
	panel := &fakeDeliberator{err: errors.New("model unavailable")}

	rec := doRequest(t, newTestServer(Deps{Store: store, Debates: panel}),
		http.MethodPost, "/api/markets/0xabc/deliberate", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"deliberation failed"}`, rec.Body.String())
}
