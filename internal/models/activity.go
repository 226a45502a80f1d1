package models

import (
	"strings"
	"time"
)

// Category is the closed set of classifications a label can receive.
type Category string

const (
	CategoryFocus       Category = "focus"
	CategoryDistraction Category = "distraction"
	CategoryNeutral     Category = "neutral"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryFocus, CategoryDistraction, CategoryNeutral}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryFocus:
		return CategoryFocus, true
	case CategoryDistraction:
		return CategoryDistraction, true
	case CategoryNeutral:
		return CategoryNeutral, true
	}
	return "", false
}

// ActivityRecord is one line of the activity log: the moment the focused
// application changed and its label.
type ActivityRecord struct {
	Timestamp time.Time `json:"timestamp"`
	AppName   string    `json:"app_name"`
}
