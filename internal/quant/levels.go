package quant

import (
	"fmt"
	"sort"
)

// Levels holds percentile-based support/resistance levels and a description
// of where the current price sits between them.
type Levels struct {
	Support    float64
	Resistance float64
	PeriodLow  float64
	PeriodHigh float64
	Position   string
}

// SupportResistance derives support from the 20th percentile and resistance
// from the 80th percentile of the sorted series (floor indexing, kept exactly
// as downstream consumers expect). Fewer than five points yields the
// insufficient-data sentinel.
func SupportResistance(prices []float64) Levels {
	if len(prices) < 5 {
		return Levels{Position: "Insufficient data"}
	}

	current := prices[len(prices)-1]

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	support := sorted[int(float64(n)*0.2)]
	resistance := sorted[int(float64(n)*0.8)]

	rangeSize := 1.0
	if resistance > support {
		rangeSize = resistance - support
	}
	positionPct := (current - support) / rangeSize * 100

	var position string
	switch {
	case current <= support*1.02:
		position = fmt.Sprintf("At support (%.1f%%) - potential bounce zone", support)
	case current >= resistance*0.98:
		position = fmt.Sprintf("At resistance (%.1f%%) - potential rejection zone", resistance)
	case positionPct > 70:
		position = fmt.Sprintf("Upper range (%.0f%%) - approaching resistance", positionPct)
	case positionPct < 30:
		position = fmt.Sprintf("Lower range (%.0f%%) - approaching support", positionPct)
	default:
		position = fmt.Sprintf("Mid-range (%.0f%%)", positionPct)
	}

	return Levels{
		Support:    roundTo(support, 2),
		Resistance: roundTo(resistance, 2),
		PeriodLow:  roundTo(sorted[0], 2),
		PeriodHigh: roundTo(sorted[n-1], 2),
		Position:   position,
	}
}
