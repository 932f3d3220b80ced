package quant

import (
	"math"
	"testing"
)

func TestExpectedValue(t *testing.T) {
	tests := []struct {
		name        string
		yesPrice    float64
		prob        float64
		wantYesEV   float64
		wantNoEV    float64
		wantEdge    float64
		wantRec     string
		description string
	}{
		{
			name:        "fairly priced at midpoint",
			yesPrice:    50,
			prob:        50,
			wantYesEV:   0,
			wantNoEV:    0,
			wantEdge:    0,
			wantRec:     "Market is fairly priced",
			description: "No edge when estimate equals price",
		},
		{
			name:        "strong yes edge",
			yesPrice:    50,
			prob:        60,
			wantYesEV:   20,
			wantNoEV:    -20,
			wantEdge:    10,
			wantRec:     "BUY YES (+EV)",
			description: "0.6*1 - 0.4 = 0.2 per unit = 20%",
		},
		{
			name:        "strong no edge",
			yesPrice:    50,
			prob:        40,
			wantYesEV:   -20,
			wantNoEV:    20,
			wantEdge:    10,
			wantRec:     "BUY NO (+EV)",
			description: "Mirror of the YES case",
		},
		{
			name:        "slight yes edge below buy threshold",
			yesPrice:    80,
			prob:        82,
			wantYesEV:   2.5,
			wantNoEV:    -10,
			wantEdge:    2,
			wantRec:     "Slight YES edge",
			description: "0.82*0.25 - 0.18 = 0.025, under the 0.05 cutoff",
		},
		{
			name:        "slight no edge below buy threshold",
			yesPrice:    20,
			prob:        19,
			wantYesEV:   -5,
			wantNoEV:    1.25,
			wantEdge:    1,
			wantRec:     "Slight NO edge",
			description: "0.81*0.25 - 0.19 = 0.0125",
		},
		{
			name:        "zero price guards division",
			yesPrice:    0,
			prob:        50,
			wantYesEV:   -50,
			wantNoEV:    -50,
			wantEdge:    50,
			wantRec:     "Market is fairly priced",
			description: "yes_profit forced to 0 when price is 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedValue(tt.yesPrice, tt.prob)

			if math.Abs(got.YesEV-tt.wantYesEV) > 0.01 {
				t.Errorf("YesEV = %.2f, want %.2f\nDescription: %s", got.YesEV, tt.wantYesEV, tt.description)
			}
			if math.Abs(got.NoEV-tt.wantNoEV) > 0.01 {
				t.Errorf("NoEV = %.2f, want %.2f\nDescription: %s", got.NoEV, tt.wantNoEV, tt.description)
			}
			if math.Abs(got.Edge-tt.wantEdge) > 0.01 {
				t.Errorf("Edge = %.2f, want %.2f", got.Edge, tt.wantEdge)
			}
			if got.Recommendation != tt.wantRec {
				t.Errorf("Recommendation = %q, want %q", got.Recommendation, tt.wantRec)
			}
		})
	}
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		yesPrice float64
		wantYes  float64
		wantNo   float64
	}{
		{name: "midpoint", yesPrice: 50, wantYes: 50, wantNo: 50},
		{name: "heavy favorite", yesPrice: 92.5, wantYes: 92.5, wantNo: 7.5},
		{name: "longshot", yesPrice: 3, wantYes: 3, wantNo: 97},
		{name: "sub-point price", yesPrice: 0.5, wantYes: 0.5, wantNo: 99.5},
		{name: "boundary zero", yesPrice: 0, wantYes: 0, wantNo: 100},
		{name: "boundary hundred", yesPrice: 100, wantYes: 100, wantNo: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImpliedProbability(tt.yesPrice)

			if math.Abs(got.ImpliedYes-tt.wantYes) > 0.001 {
				t.Errorf("ImpliedYes = %.2f, want %.2f", got.ImpliedYes, tt.wantYes)
			}
			if math.Abs(got.ImpliedNo-tt.wantNo) > 0.001 {
				t.Errorf("ImpliedNo = %.2f, want %.2f", got.ImpliedNo, tt.wantNo)
			}
			// Binary share prices sum to 1, so the overround is zero.
			if math.Abs(got.Vig) > 0.001 {
				t.Errorf("Vig = %.3f, want 0", got.Vig)
			}
			if got.BreakevenYes != got.ImpliedYes || got.BreakevenNo != got.ImpliedNo {
				t.Errorf("breakeven thresholds should equal the prices themselves, got %v/%v",
					got.BreakevenYes, got.BreakevenNo)
			}
		})
	}
}
