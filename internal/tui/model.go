// Package tui renders a live terminal view of the focus report.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/internal/reporter"
	"github.com/focuspulse/focuspulse/pkg/utils"
)

const refreshInterval = 30 * time.Second

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1)

	activeRangeStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

// ReportSource produces reports for a range.
type ReportSource interface {
	GenerateReport(ctx context.Context, rangeName string) (*models.Report, error)
}

type tickMsg time.Time

type logChangedMsg struct{}

type reportMsg struct {
	report *models.Report
	err    error
}

// Model is the bubbletea model of the live view.
type Model struct {
	ctx       context.Context
	source    ReportSource
	rangeName string
	topN      int
	changes   <-chan struct{}

	report  *models.Report
	err     error
	updated time.Time
	width   int
	height  int
}

// New creates a model for rangeName. changes, when not nil, triggers a
// refresh on every receive.
func New(ctx context.Context, source ReportSource, rangeName string, topN int, changes <-chan struct{}) Model {
	if topN <= 0 {
		topN = 10
	}
	return Model{
		ctx:       ctx,
		source:    source,
		rangeName: rangeName,
		topN:      topN,
		changes:   changes,
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, source, rng := m.ctx, m.source, m.rangeName
	return func() tea.Msg {
		report, err := source.GenerateReport(ctx, rng)
		return reportMsg{report: report, err: err}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return logChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd(), m.waitForChange())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "1", "2", "3", "4":
			m.rangeName = reporter.Ranges[key[0]-'1']
			return m, m.refreshCmd()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())
	case logChangedMsg:
		return m, tea.Batch(m.refreshCmd(), m.waitForChange())
	case reportMsg:
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.updated = time.Now()
		}
	}
	return m, nil
}

// Range returns the selected range.
func (m Model) Range() string {
	return m.rangeName
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := headerStyle.Width(m.width).Render(
		fmt.Sprintf("FocusPulse - %s", time.Now().Format("Jan 2, 2006 15:04:05")))

	var tabs []string
	for i, r := range reporter.Ranges {
		label := fmt.Sprintf("[%d] %s", i+1, r)
		if r == m.rangeName {
			label = activeRangeStyle.Render(label)
		}
		tabs = append(tabs, label)
	}
	rangeBar := strings.Join(tabs, "  ")

	var body string
	switch {
	case m.err != nil && m.report == nil:
		body = errorStyle.Render("Error: " + m.err.Error())
	case m.report == nil:
		body = "Reading activity log..."
	default:
		body = m.renderReport()
	}

	footerText := "q quit • r refresh • 1-4 range • updates on log writes and every 30s"
	if m.err != nil && m.report != nil {
		footerText = "last refresh failed: " + m.err.Error()
	}
	footer := footerStyle.Width(m.width).Render(footerText)

	return lipgloss.JoinVertical(lipgloss.Left, header, rangeBar, "", body, footer)
}

func (m Model) renderReport() string {
	r := m.report
	colWidth := m.width/2 - 3
	if colWidth < 30 {
		colWidth = 30
	}

	s := r.Summary
	scoreBox := boxStyle.Width(colWidth).Render(fmt.Sprintf(
		"FOCUS SCORE\n\n%s\n\n%s %s (%.1f%%)\n%s %s (%.1f%%)\n%s %s\nTotal: %s",
		reporter.ScoreStyle(r.FocusScore).Render(fmt.Sprintf("%.1f / 100", r.FocusScore)),
		reporter.CategoryStyle(models.CategoryFocus).Render("● focus"), utils.FormatDuration(s.FocusSeconds), s.FocusPercentage,
		reporter.CategoryStyle(models.CategoryDistraction).Render("● distraction"), utils.FormatDuration(s.DistractionSeconds), s.DistractionPercentage,
		reporter.CategoryStyle(models.CategoryNeutral).Render("● neutral"), utils.FormatDuration(s.NeutralSeconds),
		utils.FormatDuration(s.TotalSeconds),
	))

	var insights strings.Builder
	insights.WriteString("INSIGHTS\n")
	for _, line := range r.Insights {
		insights.WriteString("\n• " + line)
	}
	insightBox := boxStyle.Width(colWidth).Render(insights.String())

	var apps strings.Builder
	apps.WriteString("TOP APPS\n")
	if len(r.Apps) == 0 {
		apps.WriteString("\nNo activity in this range.")
	}
	for i, app := range r.Apps {
		if i >= m.topN {
			break
		}
		name := app.AppName
		if runes := []rune(name); len(runes) > colWidth-20 && colWidth > 23 {
			name = string(runes[:colWidth-23]) + "..."
		}
		apps.WriteString("\n" + reporter.CategoryStyle(app.Category).Render(
			fmt.Sprintf("%s %-*s %7s %5.1f%%", reporter.Marker(app.Category), colWidth-20, name,
				utils.FormatDuration(app.TotalSeconds), app.Percentage)))
	}
	appsBox := boxStyle.Width(colWidth).Render(apps.String())

	left := lipgloss.JoinVertical(lipgloss.Left, scoreBox, insightBox)
	content := lipgloss.JoinHorizontal(lipgloss.Top, left, appsBox)

	if r.SkippedRows > 0 {
		content += "\n" + footerStyle.Render(fmt.Sprintf("%d malformed log rows skipped", r.SkippedRows))
	}
	return content
}
