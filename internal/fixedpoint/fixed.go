// Package fixedpoint implements the Fixed32/Fixed64 conversions the export
// pipeline uses for fixed-point numeric fields (see DESIGN.md for why this
// is plain standard-library arithmetic rather than a third-party codec).
//
// Both widths use a Q-format with the point placed so that the raw
// two's-complement integer equals value * scale, rounded to the nearest
// representable step (half away from zero, matching the color-channel
// rounding rule the export package uses).
package fixedpoint

import "math"

// Fixed32Scale is 2^16: Fixed32 uses a Q16.16 layout.
const Fixed32Scale = 1 << 16

// Fixed64Scale is 2^32: Fixed64 uses a Q32.32 layout.
const Fixed64Scale = 1 << 32

// Fixed32FromDouble converts a float64 into its Q16.16 raw representation.
func Fixed32FromDouble(v float64) int32 {
	return int32(roundHalfAwayFromZero(v * Fixed32Scale))
}

// Fixed32ToDouble recovers the float64 value of a Q16.16 raw representation.
func Fixed32ToDouble(raw int32) float64 {
	return float64(raw) / Fixed32Scale
}

// Fixed64FromDouble converts a float64 into its Q32.32 raw representation.
func Fixed64FromDouble(v float64) int64 {
	return int64(roundHalfAwayFromZero(v * Fixed64Scale))
}

// Fixed64ToDouble recovers the float64 value of a Q32.32 raw representation.
func Fixed64ToDouble(raw int64) float64 {
	return float64(raw) / Fixed64Scale
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v + 0.5)
	}
	return math.Floor(v + 0.5)
}
