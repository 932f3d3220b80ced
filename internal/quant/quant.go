// Package quant provides the pure numeric analysis used by the deliberation
// stages: expected value, implied probability, Kelly sizing, volatility,
// momentum, support/resistance and time decay. All functions take prices on
// the 0-100 scale and return fallback values on degenerate input rather than
// errors.
package quant

import "math"

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
