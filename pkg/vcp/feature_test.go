package vcp

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"negative", -0.5, 0},
		{"zero", 0, 0},
		{"mid", 0.5, 0.5},
		{"one", 1, 1},
		{"above", 1.5, 1},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFeatureRawNeverExceedsMax(t *testing.T) {
	f := Feature{Code: CodeBrightness, Max: 100}

	for v := -0.5; v <= 1.5; v += 0.01 {
		if raw := f.Raw(v); raw > f.Max {
			t.Fatalf("Raw(%v) = %d exceeds Max %d", v, raw, f.Max)
		}
	}
}

// Writing then reading back stays within one raw unit of round(max*v)/max.
func TestFeatureRoundTripPrecision(t *testing.T) {
	for _, max := range []uint16{100, 255, 1, 0xFFFF} {
		f := Feature{Code: CodeBrightness, Max: max}
		for v := 0.0; v <= 1.0; v += 0.05 {
			raw := f.Raw(v)
			got := Feature{Code: f.Code, Max: max, Current: raw}.Normalized()
			if math.Abs(got-v) > 1.0/float64(max)+1e-9 {
				t.Errorf("max=%d v=%v: round-trip = %v (raw %d)", max, v, got, raw)
			}
		}
	}
}

func TestFeatureNormalizedZeroMax(t *testing.T) {
	f := Feature{Code: CodeBrightness}
	if got := f.Normalized(); got != 0 {
		t.Errorf("Normalized() with zero max = %v, want 0", got)
	}
}
