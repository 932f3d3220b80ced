package quant

// EVAnalysis holds expected-value figures for betting either side of a
// binary market. EVs are expressed as percentage returns per unit staked.
type EVAnalysis struct {
	YesEV          float64
	NoEV           float64
	Edge           float64
	Recommendation string
}

// ExpectedValue computes the expected return of a YES and a NO bet given the
// current market price and the caller's estimated probability of YES, both on
// the 0-100 scale.
func ExpectedValue(yesPrice, estimatedProb float64) EVAnalysis {
	price := yesPrice / 100
	prob := estimatedProb / 100

	// A winning YES share pays (1-price)/price per unit; a loss forfeits the unit.
	var yesProfit float64
	if price > 0 {
		yesProfit = (1 - price) / price
	}
	yesEV := prob*yesProfit - (1 - prob)

	noPrice := 1 - price
	var noProfit float64
	if noPrice > 0 {
		noProfit = (1 - noPrice) / noPrice
	}
	noEV := (1-prob)*noProfit - prob

	var recommendation string
	switch {
	case yesEV > 0.05:
		recommendation = "BUY YES (+EV)"
	case noEV > 0.05:
		recommendation = "BUY NO (+EV)"
	case yesEV > 0:
		recommendation = "Slight YES edge"
	case noEV > 0:
		recommendation = "Slight NO edge"
	default:
		recommendation = "Market is fairly priced"
	}

	return EVAnalysis{
		YesEV:          roundTo(yesEV*100, 2),
		NoEV:           roundTo(noEV*100, 2),
		Edge:           roundTo(abs(yesPrice-estimatedProb), 2),
		Recommendation: recommendation,
	}
}

// ImpliedProbs holds the market-implied probabilities for both outcomes plus
// the overround. Breakeven thresholds equal the share prices themselves.
type ImpliedProbs struct {
	ImpliedYes   float64
	ImpliedNo    float64
	Vig          float64
	BreakevenYes float64
	BreakevenNo  float64
}

// ImpliedProbability extracts the probabilities implied by the YES price.
// Binary share prices sum to 1, so the vig is ~0 on fee-less venues.
func ImpliedProbability(yesPrice float64) ImpliedProbs {
	yesProb := yesPrice / 100
	noProb := (100 - yesPrice) / 100

	total := yesProb + noProb
	vig := (total - 1) * 100

	return ImpliedProbs{
		ImpliedYes:   roundTo(yesPrice, 2),
		ImpliedNo:    roundTo(100-yesPrice, 2),
		Vig:          roundTo(vig, 3),
		BreakevenYes: roundTo(yesPrice, 2),
		BreakevenNo:  roundTo(100-yesPrice, 2),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
