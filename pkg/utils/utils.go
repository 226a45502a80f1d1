package utils

import (
	"fmt"
	"math"
)

// FormatRoundedUnit renders seconds in the single largest whole unit: "45s",
// "12m", "3h".
func FormatRoundedUnit(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%dh", int64(seconds/3600))
	}
	return fmt.Sprintf("%dm", int64(seconds/60))
}

// FormatDuration renders seconds as "2h 05m", "7m 30s" or "12s".
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Hours converts seconds to hours rounded to two decimals.
func Hours(seconds float64) float64 {
	return Round(seconds/3600, 2)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Percent returns part/total as a percentage with one decimal, or 0 when
// total is zero.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return Round(part/total*100, 1)
}
