package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"focus", CategoryFocus, true},
		{"Distraction", CategoryDistraction, true},
		{" NEUTRAL ", CategoryNeutral, true},
		{"productive", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestCategorySecondsAdd(t *testing.T) {
	var c CategorySeconds
	c.Add(CategoryFocus, 60)
	c.Add(CategoryDistraction, 30)
	c.Add(CategoryNeutral, 10)
	c.Add("", 5)

	assert.Equal(t, 60.0, c.Focus)
	assert.Equal(t, 30.0, c.Distraction)
	assert.Equal(t, 15.0, c.Neutral)
	assert.Equal(t, 105.0, c.Total())
}
