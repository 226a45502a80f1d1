package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/focuspulse/focuspulse/internal/analyzer"
	"github.com/focuspulse/focuspulse/internal/categorizer"
	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/logstore"
	"github.com/focuspulse/focuspulse/internal/metrics"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/pkg/utils"
)

// ErrInvalidRange is returned for a range outside Ranges.
var ErrInvalidRange = errors.New("invalid range")

// Ranges lists the accepted report ranges, shortest first.
var Ranges = []string{"6h", "12h", "24h", "7d"}

var rangeDurations = map[string]time.Duration{
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// ParseRange returns the window length for a range name.
func ParseRange(name string) (time.Duration, error) {
	d, ok := rangeDurations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrInvalidRange, name, strings.Join(Ranges, ", "))
	}
	return d, nil
}

// Reporter handles report generation
type Reporter struct {
	mu      sync.RWMutex
	config  *config.Config
	cat     *categorizer.Categorizer
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new reporter
func New(cfg *config.Config, cat *categorizer.Categorizer) *Reporter {
	return &Reporter{
		config: cfg,
		cat:    cat,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// WithMetrics records every pass in m.
func (r *Reporter) WithMetrics(m *metrics.Metrics) *Reporter {
	r.metrics = m
	return r
}

// WithLogger sets the logger used for skipped-row warnings.
func (r *Reporter) WithLogger(logger *slog.Logger) *Reporter {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// SetConfig swaps the configuration used by later passes.
func (r *Reporter) SetConfig(cfg *config.Config) {
	r.mu.Lock()
	r.config = cfg
	r.mu.Unlock()
}

// Config returns the configuration in use.
func (r *Reporter) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Categorizer returns the shared categorizer.
func (r *Reporter) Categorizer() *categorizer.Categorizer {
	return r.cat
}

// GenerateReport reads the activity log and builds the report for rangeName.
// An empty rangeName selects the configured default.
func (r *Reporter) GenerateReport(ctx context.Context, rangeName string) (*models.Report, error) {
	cfg := r.Config()
	if rangeName == "" {
		rangeName = cfg.Report.DefaultRange
	}
	rangeName = strings.ToLower(strings.TrimSpace(rangeName))
	window, err := ParseRange(rangeName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := logstore.ReadAll(cfg.Log.Path)
	if err != nil {
		r.metrics.ReportFailed(rangeName)
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	if snap.Skipped > 0 {
		r.logger.Warn("skipped malformed activity log rows", "path", cfg.Log.Path, "count", snap.Skipped)
	}

	now := r.now()
	report := analyzer.Analyze(snap.Records, r.cat.Session(ctx), analyzer.Options{
		Now:       now,
		Since:     now.Add(-window),
		RangeName: rangeName,
		Thresholds: analyzer.Thresholds{
			Excellent:       cfg.Report.ScoreExcellent,
			Good:            cfg.Report.ScoreGood,
			Low:             cfg.Report.ScoreLow,
			HighDistraction: cfg.Report.HighDistractionThreshold,
		},
		SkippedRows: snap.Skipped,
	})

	r.metrics.ObserveReport(report, len(snap.Records), time.Since(start))
	return report, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true)

	focusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	distractionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	neutralStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0A0A0"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

var categoryNames = map[models.Category]string{
	models.CategoryFocus:       "Focus",
	models.CategoryDistraction: "Distraction",
	models.CategoryNeutral:     "Neutral",
}

// CategoryStyle returns the color used for a category.
func CategoryStyle(cat models.Category) lipgloss.Style {
	switch cat {
	case models.CategoryFocus:
		return focusStyle
	case models.CategoryDistraction:
		return distractionStyle
	default:
		return neutralStyle
	}
}

// Marker is a one-character category tag for tables.
func Marker(cat models.Category) string {
	switch cat {
	case models.CategoryFocus:
		return "+"
	case models.CategoryDistraction:
		return "-"
	default:
		return "·"
	}
}

// ScoreStyle colors a focus score by band.
func ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 75:
		return focusStyle.Bold(true)
	case score >= 50:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F7DC6F")).Bold(true)
	default:
		return distractionStyle.Bold(true)
	}
}

// FormatReportText formats the report as human-readable text listing at most
// topN applications.
func (r *Reporter) FormatReportText(report *models.Report, topN int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("FocusPulse Report - last %s", report.Period.Range)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Focus Score: %s\n\n", ScoreStyle(report.FocusScore).Render(fmt.Sprintf("%.1f", report.FocusScore)))

	s := report.Summary
	if s.TotalSeconds <= 0 {
		b.WriteString("No activity recorded for this period.\n")
		writeSkipped(&b, report)
		return b.String()
	}

	b.WriteString(headerStyle.Render("Breakdown"))
	b.WriteString("\n")
	rows := []struct {
		cat  models.Category
		secs float64
	}{
		{models.CategoryFocus, s.FocusSeconds},
		{models.CategoryDistraction, s.DistractionSeconds},
		{models.CategoryNeutral, s.NeutralSeconds},
	}
	for _, row := range rows {
		label := fmt.Sprintf("%-12s", categoryNames[row.cat])
		fmt.Fprintf(&b, "  %s %10s %8.2fh %6.1f%%\n",
			CategoryStyle(row.cat).Render(label),
			utils.FormatDuration(row.secs),
			utils.Hours(row.secs),
			utils.Percent(row.secs, s.TotalSeconds))
	}
	fmt.Fprintf(&b, "  %-12s %10s %8.2fh\n\n", "Total", utils.FormatDuration(s.TotalSeconds), utils.Hours(s.TotalSeconds))

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-2s %-30s %10s %10s %9s", "", "Application", "Hours", "Minutes", "Percent")))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 66))
	b.WriteString("\n")

	apps := report.Apps
	if topN > 0 && len(apps) > topN {
		apps = apps[:topN]
	}
	for _, app := range apps {
		line := fmt.Sprintf("%-2s %-30s %10.2f %10.0f %8.1f%%",
			Marker(app.Category),
			truncate(app.AppName, 30),
			app.TotalHours,
			app.TotalMinutes,
			app.Percentage)
		b.WriteString(CategoryStyle(app.Category).Render(line))
		b.WriteString("\n")
	}
	if more := len(report.Apps) - len(apps); more > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("   ... and %d more", more)))
		b.WriteString("\n")
	}

	if len(report.Insights) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Insights"))
		b.WriteString("\n")
		for _, line := range report.Insights {
			fmt.Fprintf(&b, "  • %s\n", line)
		}
	}

	writeSkipped(&b, report)
	return b.String()
}

func writeSkipped(b *strings.Builder, report *models.Report) {
	if report.SkippedRows > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("(%d malformed log rows skipped)", report.SkippedRows)))
		b.WriteString("\n")
	}
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// truncate shortens s to maxLen runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
