package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspulse/focuspulse/internal/models"
)

func TestObserveReport(t *testing.T) {
	m := NewMetrics()

	report := &models.Report{
		Period:      models.ReportPeriod{Range: "24h"},
		FocusScore:  72.5,
		Summary:     models.Summary{FocusSeconds: 600, DistractionSeconds: 120},
		SkippedRows: 2,
	}
	m.ObserveReport(report, 40, 15*time.Millisecond)
	m.ReportFailed("6h")

	assert.Equal(t, 72.5, testutil.ToFloat64(m.focusScore.WithLabelValues("24h")))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.trackedSeconds.WithLabelValues("24h", "focus")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.skippedRows))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.logRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues("24h", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues("6h", "error")))
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := NewMetrics()

	h := m.WrapHandler("/api/report", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/report", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/report", "400")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "focuspulse_http_requests_total"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveReport(&models.Report{}, 0, time.Second)
		m.ReportFailed("24h")
	})

	called := false
	h := m.WrapHandler("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}
