package debate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"debatefloor/internal/quant"
)

// usd renders dollar amounts with thousands separators for the reports.
var usd = message.NewPrinter(language.English)

// quantStage computes the full numeric toolkit for the market and asks the
// LLM to interpret the figures. The computed report is kept verbatim in the
// contribution so later stages argue against real numbers, not paraphrases.
type quantStage struct {
	llm Completer
}

func (s *quantStage) ID() string   { return StageQuantitative }
func (s *quantStage) Name() string { return "Statistics Expert" }

func (s *quantStage) Run(ctx context.Context, state *State) (string, error) {
	price := state.Market.YesPrice

	// The coarse 7d series is preferred for indicator quality; fall back to
	// the fine 24h series when it is missing.
	priceData := state.Prices7d
	if len(priceData) == 0 {
		priceData = state.Prices24h
	}

	implied := quant.ImpliedProbability(price)
	volatility := quant.Volatility(priceData)
	momentum := quant.Momentum(priceData)
	levels := quant.SupportResistance(priceData)

	evBullish := quant.ExpectedValue(price, min(95, price+10))
	evBearish := quant.ExpectedValue(price, max(5, price-10))

	// Tilt the probability estimate by the observed momentum before sizing.
	var adjustment float64
	switch {
	case strings.HasPrefix(momentum.TrendSignal, "Strong Bullish"):
		adjustment = 5
	case strings.HasPrefix(momentum.TrendSignal, "Bullish"):
		adjustment = 2
	case strings.HasPrefix(momentum.TrendSignal, "Strong Bearish"):
		adjustment = -5
	case strings.HasPrefix(momentum.TrendSignal, "Bearish"):
		adjustment = -2
	}
	adjustedProb := max(5, min(95, price+adjustment))
	kelly := quant.Kelly(price, adjustedProb)

	endDate := state.Market.EndDate
	if endDate == "" {
		endDate = "Unknown"
	}

	report := fmt.Sprintf(`## Quantitative Analysis Report

### Market Overview
- **Current Price**: %.1f%%
- **24h Volume**: %s
- **7d Volume**: %s
- **Liquidity**: %s
- **End Date**: %s

### Implied Probability
- Market implies **%.1f%%** chance of YES
- Breakeven: Need %.1f%%+ true probability for YES bet to be +EV

### Price Volatility (%s)
- Standard Deviation: %.2f%%
- Price Range: %.1f%% - %.1f%% (Δ%.1f%%)
- Coefficient of Variation: %.1f%%

### Momentum Analysis
- **Trend**: %s
- Current: %.1f%% | Short SMA: %.2f | Long SMA: %.2f
- Rate of Change: %.1f%%

### Support & Resistance
- **Support**: %.2f%%
- **Resistance**: %.2f%%
- **Position**: %s

### Expected Value Analysis
- If market is efficient (true prob = %.0f%%): EV ≈ 0%%
- If bullish edge (+10%%): YES EV = %.1f%%, %s
- If bearish edge (-10%%): NO EV = %.1f%%, %s

### Kelly Criterion (Momentum-Adjusted)
- Adjusted probability estimate: %.1f%%
- **Optimal Side**: %s
- Quarter Kelly (conservative): %.1f%% of bankroll
- Half Kelly (moderate): %.1f%% of bankroll
- %s`,
		price,
		usd.Sprintf("$%.0f", state.Market.Volume24h),
		usd.Sprintf("$%.0f", state.Market.Volume7d),
		usd.Sprintf("$%.0f", state.Market.Liquidity),
		endDate,
		implied.ImpliedYes,
		implied.BreakevenYes,
		volatility.Regime,
		volatility.StdDev,
		volatility.Low, volatility.High, volatility.Range,
		volatility.CV,
		momentum.TrendSignal,
		momentum.CurrentPrice, momentum.SMAShort, momentum.SMALong,
		momentum.RateOfChange,
		levels.Support,
		levels.Resistance,
		levels.Position,
		price,
		evBullish.YesEV, evBullish.Recommendation,
		evBearish.NoEV, evBearish.Recommendation,
		adjustedProb,
		kelly.OptimalSide,
		kelly.QuarterKelly,
		kelly.HalfKelly,
		kelly.Recommendation,
	)

	prompt := fmt.Sprintf(`You are a Statistics Expert for prediction markets.
Today's date is: %s

Market Question: "%s"

I have computed the following quantitative analysis:

%s

Based on these calculations:
1. Is the market efficiently priced or is there an edge?
2. What does the momentum and volatility suggest about near-term price action?
3. Given the support/resistance levels, where are the key entry/exit points?
4. Final recommendation: BUY YES, BUY NO, or AVOID?

Be specific and reference the calculated numbers.`, today(), state.Market.Question, report)

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("interpret quantitative report: %w", err)
	}

	return report + "\n\n---\n\n### Expert Interpretation\n\n" + reply, nil
}
