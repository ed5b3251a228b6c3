package carbon

import "strconv"

// FormatQuantity renders f with the fewest digits that round-trip,
// without exponent notation (15000, 12.5, 0.003).
func FormatQuantity(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Clamp restricts a value to the range [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
