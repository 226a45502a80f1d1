package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/internal/reporter"
	"github.com/focuspulse/focuspulse/pkg/utils"
)

const defaultActivityLimit = 100

type Handler struct {
	reporter *reporter.Reporter
	daemon   *daemon.Daemon
	logger   *slog.Logger
	started  time.Time
	version  string
}

func NewHandler(rep *reporter.Reporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reporter: rep,
		logger:   logger,
		started:  time.Now(),
	}
}

// report runs one analyzer pass for the request's range. It writes the
// error response itself and returns nil on failure.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) *models.Report {
	rng := r.URL.Query().Get("range")
	report, err := h.reporter.GenerateReport(r.Context(), rng)
	if err != nil {
		if errors.Is(err, reporter.ErrInvalidRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return nil
		}
		h.logger.Error("failed to generate report", "range", rng, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate report")
		return nil
	}
	return report
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if report := h.report(w, r); report != nil {
		respondJSON(w, report)
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	report := h.report(w, r)
	if report == nil {
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondSummaryHTML(w, report)
		return
	}

	respondJSON(w, map[string]interface{}{
		"period":      report.Period,
		"summary":     report.Summary,
		"focus_score": report.FocusScore,
		"insights":    report.Insights,
	})
}

func (h *Handler) respondSummaryHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if report.Summary.TotalSeconds <= 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<div class="score %s">%.1f</div>`, scoreClass(report.FocusScore), report.FocusScore)

	s := report.Summary
	b.WriteString(`<div class="breakdown">`)
	for _, row := range []struct {
		cat  models.Category
		secs float64
	}{
		{models.CategoryFocus, s.FocusSeconds},
		{models.CategoryDistraction, s.DistractionSeconds},
		{models.CategoryNeutral, s.NeutralSeconds},
	} {
		fmt.Fprintf(&b, `<span class="chip %s">%s %s</span>`,
			row.cat, row.cat, utils.FormatRoundedUnit(int64(row.secs)))
	}
	b.WriteString(`</div>`)

	limit := h.reporter.Config().Report.TopApps
	b.WriteString(`<div class="listing">`)
	for i, app := range report.Apps {
		if i >= limit {
			break
		}
		percentStr := fmt.Sprintf("%.1f%%", app.Percentage)
		if app.Percentage < 10 {
			percentStr = "&nbsp;&nbsp;" + percentStr
		} else if app.Percentage < 100 {
			percentStr = "&nbsp;" + percentStr
		}

		fmt.Fprintf(&b, `
		<div class="app-item %s" style="--bar-width: %.1f%%">
			<span class="app-name">%s</span>
			<div>
				<span class="app-time">%s</span>
				<span class="app-percentage">%s</span>
			</div>
		</div>`, app.Category, app.Percentage, html.EscapeString(app.AppName),
			utils.FormatRoundedUnit(int64(app.TotalSeconds)), percentStr)
	}
	b.WriteString(`</div>`)

	if len(report.Insights) > 0 {
		b.WriteString(`<ul class="insights">`)
		for _, line := range report.Insights {
			fmt.Fprintf(&b, `<li>%s</li>`, html.EscapeString(line))
		}
		b.WriteString(`</ul>`)
	}

	fmt.Fprintf(&b, `<div class="total">Total: %s</div>`, utils.FormatDuration(s.TotalSeconds))
	w.Write([]byte(b.String()))
}

func scoreClass(score float64) string {
	switch {
	case score >= 75:
		return "high"
	case score >= 50:
		return "mid"
	default:
		return "low"
	}
}

func (h *Handler) handleApps(w http.ResponseWriter, r *http.Request) {
	report := h.report(w, r)
	if report == nil {
		return
	}

	apps := report.Apps
	if limit := parseLimit(r, h.reporter.Config().Report.TopApps); len(apps) > limit {
		apps = apps[:limit]
	}

	respondJSON(w, map[string]interface{}{
		"period": report.Period,
		"apps":   apps,
		"total":  len(report.Apps),
	})
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	report := h.report(w, r)
	if report == nil {
		return
	}

	respondJSON(w, map[string]interface{}{
		"period":   report.Period,
		"hourly":   report.Hourly,
		"timeline": report.Timeline,
	})
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	report := h.report(w, r)
	if report == nil {
		return
	}

	activity := report.Activity
	if limit := parseLimit(r, defaultActivityLimit); len(activity) > limit {
		activity = activity[:limit]
	}

	respondJSON(w, map[string]interface{}{
		"period":       report.Period,
		"activity":     activity,
		"skipped_rows": report.SkippedRows,
	})
}

func (h *Handler) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.reporter.Categorizer().Rules())
}

type categoryRequest struct {
	Category string `json:"category"`
	App      string `json:"app"`
}

// handleAddCategory only accepts application/json, which a cross-site form or
// simple request cannot send without a preflight.
func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		respondError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cat, ok := models.ParseCategory(req.Category)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", req.Category))
		return
	}

	c := h.reporter.Categorizer()
	if err := c.Add(cat, req.App); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Info("category set extended", "category", cat, "app", req.App)

	respondJSON(w, c.Rules())
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.reporter.Config()

	status := map[string]interface{}{
		"version":        h.version,
		"uptime":         time.Since(h.started).Round(time.Second).String(),
		"poll_interval":  cfg.Tracker.PollInterval.String(),
		"log_path":       cfg.Log.Path,
		"database_path":  cfg.Database.Path,
		"default_range":  cfg.Report.DefaultRange,
		"labeler":        cfg.Enricher.Provider,
		"labeler_active": h.reporter.Categorizer().HasLabeler(),
	}

	if h.daemon != nil {
		running, pid, err := h.daemon.IsRunning()
		status["tracker_running"] = running
		if running {
			status["tracker_pid"] = pid
		}
		if err != nil {
			status["tracker_error"] = err.Error()
		}
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "dashboard page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func parseLimit(r *http.Request, def int) int {
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		return l
	}
	return def
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding JSON", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
