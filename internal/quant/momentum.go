package quant

// MomentumIndicators holds moving averages and trend classification for a
// price series ordered oldest to newest.
type MomentumIndicators struct {
	CurrentPrice float64
	SMAShort     float64
	SMALong      float64
	EMA          float64
	RateOfChange float64
	TrendSignal  string
}

// Momentum computes short/long simple moving averages, an exponential moving
// average and a 5-point rate of change, then classifies the trend. Fewer than
// three points yields the "Insufficient data" signal.
func Momentum(prices []float64) MomentumIndicators {
	if len(prices) < 3 {
		var current float64
		if len(prices) > 0 {
			current = prices[len(prices)-1]
		}
		return MomentumIndicators{
			CurrentPrice: current,
			TrendSignal:  "Insufficient data",
		}
	}

	current := prices[len(prices)-1]

	// Short window covers the most recent quarter of the series, at least 3 points.
	shortPeriod := len(prices) / 4
	if shortPeriod < 3 {
		shortPeriod = 3
	}
	var shortSum float64
	for _, p := range prices[len(prices)-shortPeriod:] {
		shortSum += p
	}
	smaShort := shortSum / float64(shortPeriod)

	var longSum float64
	for _, p := range prices {
		longSum += p
	}
	smaLong := longSum / float64(len(prices))

	// EMA seeded at the first in-window price, smoothing 2/(period+1).
	emaPeriod := len(prices)
	if emaPeriod > 10 {
		emaPeriod = 10
	}
	alpha := 2 / float64(emaPeriod+1)
	ema := prices[len(prices)-emaPeriod]
	for _, p := range prices[len(prices)-emaPeriod+1:] {
		ema = alpha*p + (1-alpha)*ema
	}

	var trend string
	switch {
	case current > smaShort && smaShort > smaLong:
		trend = "Strong Bullish (price > short SMA > long SMA)"
	case current > smaShort:
		trend = "Bullish (price above short-term average)"
	case current < smaShort && smaShort < smaLong:
		trend = "Strong Bearish (price < short SMA < long SMA)"
	case current < smaShort:
		trend = "Bearish (price below short-term average)"
	default:
		trend = "Neutral (consolidating)"
	}

	var roc float64
	if len(prices) >= 5 {
		base := prices[len(prices)-5]
		if base > 0 {
			roc = (current - base) / base * 100
		}
	}

	return MomentumIndicators{
		CurrentPrice: roundTo(current, 2),
		SMAShort:     roundTo(smaShort, 2),
		SMALong:      roundTo(smaLong, 2),
		EMA:          roundTo(ema, 2),
		RateOfChange: roundTo(roc, 2),
		TrendSignal:  trend,
	}
}
