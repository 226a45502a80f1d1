package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspulse/focuspulse/internal/categorizer"
	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/logging"
	"github.com/focuspulse/focuspulse/internal/logstore"
	"github.com/focuspulse/focuspulse/internal/metrics"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/internal/reporter"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Log.Path = filepath.Join(dir, "activity_log.csv")
	cfg.Daemon.PIDFile = filepath.Join(dir, "focuspulse.pid")

	store, err := logstore.Open(cfg.Log.Path)
	require.NoError(t, err)
	now := time.Now()
	for _, rec := range []models.ActivityRecord{
		{Timestamp: now.Add(-50 * time.Minute), AppName: "VSCode"},
		{Timestamp: now.Add(-20 * time.Minute), AppName: "YouTube"},
		{Timestamp: now.Add(-10 * time.Minute), AppName: "<script>alert(1)</script>"},
	} {
		require.NoError(t, store.Append(rec))
	}
	require.NoError(t, store.Close())

	cat := categorizer.New(categorizer.Rules{
		Focus:       []string{"VSCode"},
		Distraction: []string{"YouTube"},
	}, nil, categorizer.Options{})
	m := metrics.NewMetrics()
	rep := reporter.New(cfg, cat).WithMetrics(m)

	srv := NewServer(rep, logging.Discard(), 0,
		WithMetrics(m),
		WithDaemon(daemon.New(cfg.Daemon.PIDFile)),
		WithAccessLog(io.Discard),
		WithVersion("test"),
	)
	return srv, cfg
}

var jsonHeader = map[string]string{"Content-Type": "application/json"}

func do(t *testing.T, srv *Server, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestReportEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/report?range=6h", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "6h", report.Period.Range)
	assert.Len(t, report.Apps, 3)
	assert.InDelta(t, 1800, report.Summary.FocusSeconds, 1)
	assert.InDelta(t, 600, report.Summary.DistractionSeconds, 1)
}

func TestInvalidRangeIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/api/report", "/api/summary", "/api/apps", "/api/timeline", "/api/activity"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, path+"?range=month", nil, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid range")
		})
	}
}

func TestSummaryJSONAndHTML(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/summary?range=24h", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "focus_score")

	rec = do(t, srv, http.MethodGet, "/api/summary?range=24h", nil, map[string]string{"HX-Request": "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	html := rec.Body.String()
	assert.Contains(t, html, `class="score`)
	assert.Contains(t, html, "VSCode")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestAppsAndActivityLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/apps?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var apps struct {
		Apps  []models.AppSummary `json:"apps"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
	assert.Len(t, apps.Apps, 1)
	assert.Equal(t, 3, apps.Total)
	assert.Equal(t, "VSCode", apps.Apps[0].AppName)

	rec = do(t, srv, http.MethodGet, "/api/activity?limit=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var act struct {
		Activity []models.ActivityEntry `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &act))
	require.Len(t, act.Activity, 2)
	assert.Equal(t, "YouTube", act.Activity[1].AppName)
}

func TestTimelineEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/timeline", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Hourly   []models.HourBucket     `json:"hourly"`
		Timeline []models.TimelineBucket `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Hourly, 24)
	assert.NotEmpty(t, body.Timeline)
}

func TestCategoriesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/categories",
		strings.NewReader(`{"category":"distraction","app":"<script>alert(1)</script>"}`), jsonHeader)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/categories", nil, nil)
	var rules categorizer.Rules
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Contains(t, rules.Distraction, "<script>alert(1)</script>")

	// the next pass sees the new member
	rec = do(t, srv, http.MethodGet, "/api/report?range=6h", nil, nil)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 1200, report.Summary.DistractionSeconds, 1)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"neutral", `{"category":"neutral","app":"Calculator"}`},
		{"unknown category", `{"category":"fun","app":"Calculator"}`},
		{"empty app", `{"category":"focus","app":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/categories", strings.NewReader(tt.body), jsonHeader)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAddCategoryRequiresJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"category":"distraction","app":"Calculator"}`

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"text plain", "text/plain", http.StatusUnsupportedMediaType},
		{"form", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing", "", http.StatusUnsupportedMediaType},
		{"json with charset", "application/json; charset=utf-8", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.contentType != "" {
				header["Content-Type"] = tt.contentType
			}
			rec := do(t, srv, http.MethodPost, "/api/categories", strings.NewReader(body), header)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/categories", nil, nil)
	var rules categorizer.Rules
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Contains(t, rules.Distraction, "Calculator")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReloadReplacesCategorySets(t *testing.T) {
	srv, cfg := newTestServer(t)

	next := *cfg
	next.Categories.Focus = []string{"YouTube"}
	next.Categories.Distraction = []string{"VSCode"}
	srv.Reload(&next)

	rec := do(t, srv, http.MethodGet, "/api/report?range=6h", nil, nil)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 600, report.Summary.FocusSeconds, 1)
	assert.InDelta(t, 1800, report.Summary.DistractionSeconds, 1)
}

func TestStatusHealthIndexMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "test", status["version"])
	assert.Equal(t, false, status["tracker_running"])

	rec = do(t, srv, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = do(t, srv, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hx-get=\"/api/summary?range=24h\"")

	do(t, srv, http.MethodGet, "/api/report", nil, nil)
	rec = do(t, srv, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "focuspulse_focus_score")

	rec = do(t, srv, http.MethodDelete, "/api/report", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, srv, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
