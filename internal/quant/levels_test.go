package quant

import (
	"math"
	"testing"
)

func TestSupportResistance(t *testing.T) {
	tests := []struct {
		name           string
		prices         []float64
		wantSupport    float64
		wantResistance float64
		wantPosition   string
		description    string
	}{
		{
			name:           "ten point ladder",
			prices:         []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			wantSupport:    30,
			wantResistance: 90,
			wantPosition:   "At resistance (90.0%) - potential rejection zone",
			description:    "support at sorted index 2 (floor 10*0.2), resistance at index 8",
		},
		{
			name:           "current sitting on support",
			prices:         []float64{50, 45, 40, 35, 30},
			wantSupport:    35,
			wantResistance: 50,
			wantPosition:   "At support (35.0%) - potential bounce zone",
			description:    "30 is within 2% of the 35 support level",
		},
		{
			name:           "mid range",
			prices:         []float64{30, 70, 40, 60, 50},
			wantSupport:    40,
			wantResistance: 70,
			wantPosition:   "Mid-range (33%)",
			description:    "(50-40)/30 = 33%",
		},
		{
			name:           "upper range approaching resistance",
			prices:         []float64{10, 20, 30, 40, 50, 100, 60, 90, 80, 75},
			wantSupport:    30,
			wantResistance: 90,
			wantPosition:   "Upper range (75%) - approaching resistance",
			description:    "(75-30)/60 = 75%",
		},
		{
			name:           "lower range approaching support",
			prices:         []float64{100, 90, 80, 70, 60, 50, 30, 20, 10, 40},
			wantSupport:    30,
			wantResistance: 90,
			wantPosition:   "Lower range (17%) - approaching support",
			description:    "(40-30)/60 = 16.7%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SupportResistance(tt.prices)

			if math.Abs(got.Support-tt.wantSupport) > 0.01 {
				t.Errorf("Support = %.2f, want %.2f\nDescription: %s", got.Support, tt.wantSupport, tt.description)
			}
			if math.Abs(got.Resistance-tt.wantResistance) > 0.01 {
				t.Errorf("Resistance = %.2f, want %.2f", got.Resistance, tt.wantResistance)
			}
			if got.Position != tt.wantPosition {
				t.Errorf("Position = %q, want %q", got.Position, tt.wantPosition)
			}
		})
	}
}

func TestSupportResistanceInsufficient(t *testing.T) {
	for _, prices := range [][]float64{nil, {50}, {50, 51, 52, 53}} {
		got := SupportResistance(prices)
		if got.Position != "Insufficient data" {
			t.Errorf("SupportResistance(%v).Position = %q, want Insufficient data", prices, got.Position)
		}
		if got.Support != 0 || got.Resistance != 0 {
			t.Errorf("sentinel should carry zero levels, got %v/%v", got.Support, got.Resistance)
		}
	}
}

func TestSupportResistanceInputUntouched(t *testing.T) {
	prices := []float64{90, 10, 50, 30, 70}
	SupportResistance(prices)

	want := []float64{90, 10, 50, 30, 70}
	for i := range prices {
		if prices[i] != want[i] {
			t.Fatalf("input slice mutated at %d: %v", i, prices)
		}
	}
}
