package models

import "time"

// ReportPeriod is the analysis window of a report.
type ReportPeriod struct {
	Range string    `json:"range"` // "6h", "12h", "24h", "7d"
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary holds the per-category totals of a report.
type Summary struct {
	FocusSeconds          float64 `json:"focus_seconds"`
	DistractionSeconds    float64 `json:"distraction_seconds"`
	NeutralSeconds        float64 `json:"neutral_seconds"`
	TotalSeconds          float64 `json:"total_seconds"`
	FocusPercentage       float64 `json:"focus_percentage"`
	DistractionPercentage float64 `json:"distraction_percentage"`
	Sessions              int     `json:"sessions"`
}

// AppSummary is the time spent in one application.
type AppSummary struct {
	AppName      string   `json:"app_name"`
	Category     Category `json:"category"`
	TotalSeconds float64  `json:"total_seconds"`
	TotalMinutes float64  `json:"total_minutes"`
	TotalHours   float64  `json:"total_hours"`
	EventCount   int      `json:"event_count"`
	Percentage   float64  `json:"percentage"`
}

// CategorySeconds splits a bucket of time by category.
type CategorySeconds struct {
	Focus       float64 `json:"focus"`
	Distraction float64 `json:"distraction"`
	Neutral     float64 `json:"neutral"`
}

// Add credits seconds to the given category.
func (c *CategorySeconds) Add(cat Category, seconds float64) {
	switch cat {
	case CategoryFocus:
		c.Focus += seconds
	case CategoryDistraction:
		c.Distraction += seconds
	default:
		c.Neutral += seconds
	}
}

// Total returns the bucket's seconds across all categories.
func (c CategorySeconds) Total() float64 {
	return c.Focus + c.Distraction + c.Neutral
}

// HourBucket aggregates time for one hour of the day (0-23).
type HourBucket struct {
	Hour int `json:"hour"`
	CategorySeconds
}

// TimelineBucket aggregates time for one wall-clock hour.
type TimelineBucket struct {
	Start time.Time `json:"start"`
	CategorySeconds
}

// ActivityEntry is a windowed record annotated by the analyzer.
type ActivityEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	AppName         string    `json:"app_name"`
	BaseApp         string    `json:"base_app"`
	Title           string    `json:"title,omitempty"`
	Category        Category  `json:"category"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Report is the aggregate view of the activity log over one window.
type Report struct {
	Period      ReportPeriod     `json:"period"`
	Summary     Summary          `json:"summary"`
	FocusScore  float64          `json:"focus_score"`
	Apps        []AppSummary     `json:"apps"`
	Hourly      []HourBucket     `json:"hourly"`
	Timeline    []TimelineBucket `json:"timeline"`
	Activity    []ActivityEntry  `json:"activity"`
	Insights    []string         `json:"insights"`
	SkippedRows int              `json:"skipped_rows"`
	GeneratedAt time.Time        `json:"generated_at"`
}
