package output

import (
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds a float to max 6 decimal places and removes trailing zeros
func RoundFloat(f float64) float64 {
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats a float with no trailing zeros
func FormatFloat(f float64) string {
	rounded := RoundFloat(f)

	str := strconv.FormatFloat(rounded, 'f', 6, 64)

	// Remove trailing zeros, then a dangling decimal point
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")

	return str
}
