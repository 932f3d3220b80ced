package quant

import (
	"math"
	"testing"
	"time"
)

func TestTimeDecayUrgency(t *testing.T) {
	tests := []struct {
		name        string
		fromNow     time.Duration
		wantUrgency string
	}{
		{name: "12 hours out is critical", fromNow: 12 * time.Hour, wantUrgency: "CRITICAL"},
		{name: "exactly inside a day", fromNow: 23 * time.Hour, wantUrgency: "CRITICAL"},
		{name: "two days out is high", fromNow: 48 * time.Hour, wantUrgency: "HIGH"},
		{name: "five days out is moderate", fromNow: 5 * 24 * time.Hour, wantUrgency: "MODERATE"},
		{name: "three weeks out is low", fromNow: 21 * 24 * time.Hour, wantUrgency: "LOW"},
		{name: "two months out is minimal", fromNow: 60 * 24 * time.Hour, wantUrgency: "MINIMAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endDate := time.Now().UTC().Add(tt.fromNow).Format(time.RFC3339)
			got := TimeDecay(endDate, 50)

			if !got.Valid {
				t.Fatalf("profile unexpectedly invalid for %q", endDate)
			}
			if got.Urgency != tt.wantUrgency {
				t.Errorf("Urgency = %q, want %q (%.1fh remaining)", got.Urgency, tt.wantUrgency, got.HoursRemaining)
			}
		})
	}
}

func TestTimeDecayExpired(t *testing.T) {
	endDate := time.Now().UTC().Add(-6 * time.Hour).Format(time.RFC3339)
	got := TimeDecay(endDate, 50)

	if !got.Expired {
		t.Fatal("expected expired profile")
	}
	if got.Urgency != "EXPIRED" {
		t.Errorf("Urgency = %q, want EXPIRED", got.Urgency)
	}
	if got.DaysRemaining != 0 || got.HoursRemaining != 0 {
		t.Errorf("remaining time should be zeroed, got %vd %vh", got.DaysRemaining, got.HoursRemaining)
	}
}

func TestTimeDecayUnparsable(t *testing.T) {
	for _, endDate := range []string{"", "whenever", "31/12/2030"} {
		got := TimeDecay(endDate, 50)
		if got.Valid {
			t.Errorf("TimeDecay(%q) should be invalid", endDate)
		}
		if got.Urgency != "UNKNOWN" {
			t.Errorf("TimeDecay(%q).Urgency = %q, want UNKNOWN", endDate, got.Urgency)
		}
	}
}

func TestTimeDecayFormats(t *testing.T) {
	// Date-only and zone-less layouts are common in market metadata.
	for _, endDate := range []string{
		"2031-06-15",
		"2031-06-15T12:00:00",
		"2031-06-15 12:00:00",
		"2031-06-15T12:00:00Z",
	} {
		got := TimeDecay(endDate, 50)
		if !got.Valid {
			t.Errorf("TimeDecay(%q) should parse", endDate)
		}
	}
}

func TestTimeDecayTheta(t *testing.T) {
	endDate := time.Now().UTC().Add(4 * 24 * time.Hour).Format(time.RFC3339)
	got := TimeDecay(endDate, 50)

	want := 1 / math.Sqrt(4)
	if math.Abs(got.Theta-want) > 0.01 {
		t.Errorf("Theta = %.3f, want %.3f", got.Theta, want)
	}
}

func TestTimeDecayRisk(t *testing.T) {
	tests := []struct {
		name      string
		fromNow   time.Duration
		price     float64
		wantLevel string
	}{
		{
			name:      "contested price near resolution",
			fromNow:   3 * 24 * time.Hour,
			price:     50,
			wantLevel: "high",
		},
		{
			name:      "contested price two weeks out",
			fromNow:   14 * 24 * time.Hour,
			price:     50,
			wantLevel: "moderate",
		},
		{
			name:      "settled price two weeks out",
			fromNow:   14 * 24 * time.Hour,
			price:     90,
			wantLevel: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endDate := time.Now().UTC().Add(tt.fromNow).Format(time.RFC3339)
			got := TimeDecay(endDate, tt.price)

			if got.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %q (risk %.3f), want %q", got.RiskLevel, got.VolatilityRisk, tt.wantLevel)
			}
		})
	}
}
