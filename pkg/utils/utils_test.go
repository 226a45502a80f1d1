package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0s"},
		{59, "59s"},
		{60, "1m"},
		{3599, "59m"},
		{3600, "1h"},
		{7300, "2h"},
		{-90, "1m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRoundedUnit(tt.in), "seconds=%d", tt.in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0s"},
		{12.4, "12s"},
		{450, "7m 30s"},
		{7500, "2h 05m"},
		{-3, "0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), "seconds=%v", tt.in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 33.3, Percent(1, 3))
	assert.Equal(t, 100.0, Percent(5, 5))
	assert.Equal(t, 1.5, Hours(5400))
}
