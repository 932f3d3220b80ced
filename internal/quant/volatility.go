package quant

import "math"

// VolatilityProfile summarizes the dispersion of a price series and its
// volatility regime.
type VolatilityProfile struct {
	StdDev float64
	Mean   float64
	CV     float64
	Regime string
	Range  float64
	High   float64
	Low    float64
}

// Volatility computes population mean/std-dev, coefficient of variation and
// the observed range of a 0-100 price series. Fewer than two points yields
// the insufficient-data profile (std 0, mean 50).
func Volatility(prices []float64) VolatilityProfile {
	if len(prices) < 2 {
		return VolatilityProfile{
			StdDev: 0,
			Mean:   50,
			CV:     0,
			Regime: "Unknown (insufficient data)",
			Range:  0,
		}
	}

	n := float64(len(prices))
	var sum float64
	low, high := prices[0], prices[0]
	for _, p := range prices {
		sum += p
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	mean := sum / n

	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= n
	stdDev := math.Sqrt(variance)

	var cv float64
	if mean > 0 {
		cv = stdDev / mean * 100
	}

	var regime string
	switch {
	case stdDev < 2:
		regime = "Low volatility (stable)"
	case stdDev < 5:
		regime = "Moderate volatility"
	case stdDev < 10:
		regime = "High volatility"
	default:
		regime = "Extreme volatility"
	}

	return VolatilityProfile{
		StdDev: roundTo(stdDev, 2),
		Mean:   roundTo(mean, 2),
		CV:     roundTo(cv, 2),
		Regime: regime,
		Range:  roundTo(high-low, 2),
		High:   roundTo(high, 2),
		Low:    roundTo(low, 2),
	}
}
