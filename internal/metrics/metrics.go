// Package metrics exposes Prometheus metrics for the dashboard server and
// the report pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/focuspulse/focuspulse/internal/models"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	reportsTotal      *prometheus.CounterVec
	reportDuration    prometheus.Histogram
	focusScore        *prometheus.GaugeVec
	trackedSeconds    *prometheus.GaugeVec
	skippedRows       prometheus.Gauge
	logRecords        prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focuspulse_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "focuspulse_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "focuspulse_reports_total",
			Help: "Analyzer passes by range and outcome.",
		}, []string{"range", "outcome"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "focuspulse_report_duration_seconds",
			Help:    "Time to read the activity log and build a report.",
			Buckets: prometheus.DefBuckets,
		}),
		focusScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "focuspulse_focus_score",
			Help: "Focus score of the most recent report, by range.",
		}, []string{"range"}),
		trackedSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "focuspulse_tracked_seconds",
			Help: "Tracked time of the most recent report, by range and category.",
		}, []string{"range", "category"}),
		skippedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "focuspulse_log_skipped_rows",
			Help: "Malformed activity log rows skipped by the most recent read.",
		}),
		logRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "focuspulse_log_records",
			Help: "Valid activity log records seen by the most recent read.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.reportsTotal,
		m.reportDuration,
		m.focusScore,
		m.trackedSeconds,
		m.skippedRows,
		m.logRecords,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveReport records a successful analyzer pass.
func (m *Metrics) ObserveReport(report *models.Report, records int, duration time.Duration) {
	if m == nil || report == nil {
		return
	}
	rng := report.Period.Range
	m.reportsTotal.WithLabelValues(rng, "ok").Inc()
	m.reportDuration.Observe(duration.Seconds())
	m.focusScore.WithLabelValues(rng).Set(report.FocusScore)
	m.trackedSeconds.WithLabelValues(rng, string(models.CategoryFocus)).Set(report.Summary.FocusSeconds)
	m.trackedSeconds.WithLabelValues(rng, string(models.CategoryDistraction)).Set(report.Summary.DistractionSeconds)
	m.trackedSeconds.WithLabelValues(rng, string(models.CategoryNeutral)).Set(report.Summary.NeutralSeconds)
	m.skippedRows.Set(float64(report.SkippedRows))
	m.logRecords.Set(float64(records))
}

// ReportFailed records an analyzer pass that could not read the log.
func (m *Metrics) ReportFailed(rng string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(rng, "error").Inc()
}
