package vcp

import "math"

// Feature holds the raw register values of one VCP feature.
type Feature struct {
	// Code is the VCP feature code.
	Code Code

	// Max is the display's maximum raw value for this feature.
	Max uint16

	// Current is the display's current raw value.
	Current uint16
}

// Normalized returns Current/Max clamped to [0,1].
func (f Feature) Normalized() float64 {
	if f.Max == 0 {
		return 0
	}
	return Clamp(float64(f.Current) / float64(f.Max))
}

// Raw converts a normalized value to the feature's raw range.
// The result is round(Max * clamp(v)) and never exceeds Max.
func (f Feature) Raw(v float64) uint16 {
	raw := uint16(math.Round(float64(f.Max) * Clamp(v)))
	if raw > f.Max {
		raw = f.Max
	}
	return raw
}

// Clamp clamps a normalized brightness value to [0,1].
// NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
