// Package analyzer turns the activity log into an aggregate report:
// per-category, per-application and per-hour time, the focus score and
// insights.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/focuspulse/focuspulse/internal/categorizer"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/pkg/utils"
)

// Classifier assigns a category to a label.
type Classifier interface {
	Categorize(label string) models.Category
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(label string) models.Category

func (f ClassifierFunc) Categorize(label string) models.Category { return f(label) }

// Thresholds drive the insight messages.
type Thresholds struct {
	Excellent       float64
	Good            float64
	Low             float64
	HighDistraction float64 // percent of tracked time
}

// DefaultThresholds are used when Options.Thresholds is zero.
var DefaultThresholds = Thresholds{Excellent: 75, Good: 50, Low: 30, HighDistraction: 30}

// Options describes one analysis pass.
type Options struct {
	Now         time.Time
	Since       time.Time // window start; zero means the whole log
	RangeName   string
	Thresholds  Thresholds
	SkippedRows int
}

// Analyze aggregates records, which must be the full log in write order.
func Analyze(records []models.ActivityRecord, cls Classifier, opts Options) *models.Report {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds
	}

	report := &models.Report{
		Period: models.ReportPeriod{
			Range: opts.RangeName,
			Start: opts.Since,
			End:   opts.Now,
		},
		Apps:        []models.AppSummary{},
		Hourly:      make([]models.HourBucket, 24),
		Timeline:    []models.TimelineBucket{},
		Activity:    []models.ActivityEntry{},
		SkippedRows: opts.SkippedRows,
		GeneratedAt: opts.Now,
	}
	for h := range report.Hourly {
		report.Hourly[h].Hour = h
	}

	durations := Durations(records, opts.Now)

	apps := make(map[string]*models.AppSummary)
	timeline := make(map[time.Time]*models.TimelineBucket)
	var totals models.CategorySeconds

	for i, rec := range records {
		if !opts.Since.IsZero() && rec.Timestamp.Before(opts.Since) {
			continue
		}

		secs := durations[i]
		cat := cls.Categorize(rec.AppName)

		totals.Add(cat, secs)
		report.Summary.Sessions++

		app, ok := apps[rec.AppName]
		if !ok {
			app = &models.AppSummary{AppName: rec.AppName, Category: cat}
			apps[rec.AppName] = app
		}
		app.TotalSeconds += secs
		app.EventCount++

		local := rec.Timestamp.Local()
		report.Hourly[local.Hour()].Add(cat, secs)

		hour := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, local.Location())
		bucket, ok := timeline[hour]
		if !ok {
			bucket = &models.TimelineBucket{Start: hour}
			timeline[hour] = bucket
		}
		bucket.Add(cat, secs)

		base := categorizer.BaseApp(rec.AppName)
		report.Activity = append(report.Activity, models.ActivityEntry{
			Timestamp:       rec.Timestamp,
			AppName:         rec.AppName,
			BaseApp:         base,
			Title:           categorizer.Title(rec.AppName, base),
			Category:        cat,
			DurationSeconds: secs,
		})
	}

	total := totals.Total()
	report.Summary.FocusSeconds = totals.Focus
	report.Summary.DistractionSeconds = totals.Distraction
	report.Summary.NeutralSeconds = totals.Neutral
	report.Summary.TotalSeconds = total
	report.Summary.FocusPercentage = utils.Percent(totals.Focus, total)
	report.Summary.DistractionPercentage = utils.Percent(totals.Distraction, total)
	report.FocusScore = FocusScore(totals.Focus, totals.Distraction, total)

	for _, app := range apps {
		app.TotalMinutes = utils.Round(app.TotalSeconds/60, 2)
		app.TotalHours = utils.Hours(app.TotalSeconds)
		app.Percentage = utils.Percent(app.TotalSeconds, total)
		report.Apps = append(report.Apps, *app)
	}
	sort.Slice(report.Apps, func(i, j int) bool {
		if report.Apps[i].TotalSeconds != report.Apps[j].TotalSeconds {
			return report.Apps[i].TotalSeconds > report.Apps[j].TotalSeconds
		}
		return report.Apps[i].AppName < report.Apps[j].AppName
	})

	for _, b := range timeline {
		report.Timeline = append(report.Timeline, *b)
	}
	sort.Slice(report.Timeline, func(i, j int) bool {
		return report.Timeline[i].Start.Before(report.Timeline[j].Start)
	})

	// newest first
	for i, j := 0, len(report.Activity)-1; i < j; i, j = i+1, j-1 {
		report.Activity[i], report.Activity[j] = report.Activity[j], report.Activity[i]
	}

	report.Insights = Insights(report, opts.Thresholds)
	return report
}

// Durations returns, for each record, the seconds until the next record. The
// last record runs until now. Out-of-order timestamps yield zero.
func Durations(records []models.ActivityRecord, now time.Time) []float64 {
	out := make([]float64, len(records))
	for i := range records {
		end := now
		if i+1 < len(records) {
			end = records[i+1].Timestamp
		}
		if d := end.Sub(records[i].Timestamp).Seconds(); d > 0 {
			out[i] = d
		}
	}
	return out
}

// FocusScore maps the balance of focus and distraction time to [0, 100]:
// 50 + 50*(focus-distraction)/total, one decimal. Neutral time dilutes the
// score towards 50. No tracked time scores 0.
func FocusScore(focus, distraction, total float64) float64 {
	if total <= 0 {
		return 0
	}
	score := 50 + 50*(focus-distraction)/total
	score = math.Max(0, math.Min(100, score))
	return utils.Round(score, 1)
}

// Insights derives human-readable observations from a report.
func Insights(r *models.Report, th Thresholds) []string {
	if r.Summary.TotalSeconds <= 0 {
		return []string{"No activity recorded in this period yet. Start the tracker to collect data."}
	}

	var out []string
	switch score := r.FocusScore; {
	case score >= th.Excellent:
		out = append(out, fmt.Sprintf("Excellent focus: score %.1f. Keep it up!", score))
	case score >= th.Good:
		out = append(out, fmt.Sprintf("Good focus: score %.1f. There is room to cut distractions.", score))
	case score >= th.Low:
		out = append(out, fmt.Sprintf("Fair focus: score %.1f. Distractions are taking a noticeable share.", score))
	default:
		out = append(out, fmt.Sprintf("Low focus: score %.1f. Most tracked time went to distractions.", score))
	}

	if r.Summary.DistractionPercentage > th.HighDistraction {
		out = append(out, fmt.Sprintf("High distraction: %.1f%% of tracked time was spent in distracting apps.", r.Summary.DistractionPercentage))
	}

	for _, app := range r.Apps {
		if app.Category == models.CategoryDistraction && app.TotalSeconds > 0 {
			out = append(out, fmt.Sprintf("Top distraction: %s (%s).", app.AppName, utils.FormatDuration(app.TotalSeconds)))
			break
		}
	}

	var best models.HourBucket
	for _, h := range r.Hourly {
		if h.Focus > best.Focus {
			best = h
		}
	}
	if best.Focus > 0 {
		out = append(out, fmt.Sprintf("Most focused hour: %02d:00-%02d:00.", best.Hour, (best.Hour+1)%24))
	}
	return out
}
