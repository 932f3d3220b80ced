package quant

import (
	"math"
	"time"
)

// DecayProfile describes how much time a market has left and how that time
// amplifies or dampens the value of acting now.
type DecayProfile struct {
	Valid          bool
	Expired        bool
	DaysRemaining  float64
	HoursRemaining float64
	Urgency        string
	Theta          float64
	VolatilityRisk float64
	RiskLevel      string
	Advice         string
}

// endDateFormats are the layouts accepted for market end dates, tried in order.
var endDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimeDecay derives urgency, a theta-style decay factor and a
// resolution-window risk figure from a market end date and its current YES
// price (0-100). An absent or unparsable end date yields the invalid profile;
// a past end date yields the EXPIRED profile with zero time remaining.
func TimeDecay(endDate string, currentPrice float64) DecayProfile {
	end, ok := parseEndDate(endDate)
	if !ok {
		return DecayProfile{
			Urgency:   "UNKNOWN",
			RiskLevel: "unknown",
			Advice:    "End date missing or unparsable; cannot assess time decay.",
		}
	}

	remaining := time.Until(end)
	days := remaining.Hours() / 24
	hours := remaining.Hours()

	expired := false
	if remaining < 0 {
		expired = true
		days = 0
		hours = 0
	}

	var urgency string
	switch {
	case expired:
		urgency = "EXPIRED"
	case hours <= 24:
		urgency = "CRITICAL"
	case days <= 3:
		urgency = "HIGH"
	case days <= 7:
		urgency = "MODERATE"
	case days <= 30:
		urgency = "LOW"
	default:
		urgency = "MINIMAL"
	}

	clamped := math.Max(days, 0.1)
	theta := 1 / math.Sqrt(clamped)

	priceUncertainty := 1 - abs(currentPrice-50)/50
	timePressure := math.Min(1, 7/clamped)
	risk := priceUncertainty * timePressure

	var riskLevel string
	switch {
	case risk > 0.7:
		riskLevel = "high"
	case risk > 0.4:
		riskLevel = "moderate"
	default:
		riskLevel = "low"
	}

	return DecayProfile{
		Valid:          true,
		Expired:        expired,
		DaysRemaining:  roundTo(days, 2),
		HoursRemaining: roundTo(hours, 1),
		Urgency:        urgency,
		Theta:          roundTo(theta, 3),
		VolatilityRisk: roundTo(risk, 3),
		RiskLevel:      riskLevel,
		Advice:         decayAdvice(currentPrice, days, expired),
	}
}

func parseEndDate(endDate string) (time.Time, bool) {
	if endDate == "" {
		return time.Time{}, false
	}
	for _, layout := range endDateFormats {
		if t, err := time.Parse(layout, endDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decayAdvice is a fixed rule table keyed on price extremity and days left.
func decayAdvice(price, days float64, expired bool) string {
	if expired {
		return "Market has passed its end date; await resolution rather than opening positions."
	}

	extreme := price >= 80 || price <= 20
	switch {
	case extreme && days <= 1:
		return "Near-consensus price with resolution imminent; little edge left unless you hold strong private information."
	case extreme && days <= 7:
		return "Price near the extremes with resolution approaching; remaining returns are thin and a late reversal is the main risk."
	case extreme:
		return "Price already near the extremes; a profitable entry requires disagreeing with a confident market well before resolution."
	case days <= 1:
		return "Contested market resolving within a day; expect violent repricing as the outcome becomes known."
	case days <= 7:
		return "Contested market in its final week; fresh information will move the price sharply, so sizing matters more than direction."
	default:
		return "Contested market with time on the clock; decay is low and there is room to wait for better information."
	}
}
