package quant

import "fmt"

// KellySizing holds optimal bet sizing derived from the Kelly criterion,
// reported as bankroll percentages.
type KellySizing struct {
	FullKelly      float64
	HalfKelly      float64
	QuarterKelly   float64
	OptimalSide    string
	Recommendation string
}

// Kelly computes the Kelly fraction f* = (b*p - q) / b for both sides of the
// market, where b is the payoff odds of the side, and picks whichever side
// has the larger positive fraction. The fraction is clamped to [0,1]. When
// neither side has positive expectancy the side is "NONE" and the fractions
// are zero.
func Kelly(yesPrice, estimatedProb float64) KellySizing {
	price := yesPrice / 100
	prob := estimatedProb / 100

	var kellyYes float64
	if price > 0 && price < 1 {
		bYes := (1 - price) / price
		if bYes > 0 {
			kellyYes = (bYes*prob - (1 - prob)) / bYes
		}
	}

	noPrice := 1 - price
	var kellyNo float64
	if noPrice > 0 && noPrice < 1 {
		bNo := (1 - noPrice) / noPrice
		if bNo > 0 {
			kellyNo = (bNo*(1-prob) - prob) / bNo
		}
	}

	var optimal float64
	var side string
	switch {
	case kellyYes > kellyNo && kellyYes > 0:
		optimal = kellyYes
		side = "YES"
	case kellyNo > 0:
		optimal = kellyNo
		side = "NO"
	default:
		optimal = 0
		side = "NONE"
	}

	if optimal < 0 {
		optimal = 0
	}
	if optimal > 1 {
		optimal = 1
	}

	recommendation := "No bet recommended (no edge)"
	if optimal > 0.01 {
		recommendation = fmt.Sprintf("Bet %v%%-%v%% of bankroll on %s",
			roundTo(optimal*25, 1), roundTo(optimal*50, 1), side)
	}

	return KellySizing{
		FullKelly:      roundTo(optimal*100, 2),
		HalfKelly:      roundTo(optimal*50, 2),
		QuarterKelly:   roundTo(optimal*25, 2),
		OptimalSide:    side,
		Recommendation: recommendation,
	}
}
