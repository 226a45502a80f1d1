package web

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/focuspulse/focuspulse/internal/categorizer"
	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/metrics"
	"github.com/focuspulse/focuspulse/internal/reporter"
)

//go:embed static
var staticFiles embed.FS

type Server struct {
	handler *Handler
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server, *serverOptions)

type serverOptions struct {
	accessLog io.Writer
}

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server, _ *serverOptions) { s.metrics = m }
}

// WithDaemon lets /api/status report the background tracker.
func WithDaemon(d *daemon.Daemon) Option {
	return func(s *Server, _ *serverOptions) { s.handler.daemon = d }
}

// WithAccessLog sets the access log destination (stdout by default).
func WithAccessLog(w io.Writer) Option {
	return func(_ *Server, o *serverOptions) { o.accessLog = w }
}

// WithVersion sets the version reported by /api/status.
func WithVersion(v string) Option {
	return func(s *Server, _ *serverOptions) { s.handler.version = v }
}

func NewServer(rep *reporter.Reporter, logger *slog.Logger, customPort int, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := rep.Config()

	s := &Server{
		handler: NewHandler(rep, logger),
		logger:  logger,
	}
	o := &serverOptions{accessLog: os.Stdout}
	for _, opt := range opts {
		opt(s, o)
	}

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	router := s.Router()
	var root http.Handler = handlers.LoggingHandler(o.accessLog, router)
	root = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
	)(root)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, port),
		Handler:      root,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	h := s.handler
	r := mux.NewRouter()

	route := func(path string, fn http.HandlerFunc, methods ...string) {
		r.Handle(path, s.metrics.WrapHandler(path, fn)).Methods(methods...)
	}

	route("/", h.handleIndex, http.MethodGet)
	route("/api/report", h.handleReport, http.MethodGet)
	route("/api/summary", h.handleSummary, http.MethodGet)
	route("/api/apps", h.handleApps, http.MethodGet)
	route("/api/timeline", h.handleTimeline, http.MethodGet)
	route("/api/activity", h.handleActivity, http.MethodGet)
	route("/api/categories", h.handleGetCategories, http.MethodGet)
	route("/api/categories", h.handleAddCategory, http.MethodPost)
	route("/api/status", h.handleStatus, http.MethodGet)
	route("/health", h.handleHealth, http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Reload applies a new configuration: category sets go to the shared
// categorizer, everything else to later report passes.
func (s *Server) Reload(cfg *config.Config) {
	rep := s.handler.reporter
	rep.SetConfig(cfg)
	rep.Categorizer().SetRules(categorizer.Rules{
		Focus:       cfg.Categories.Focus,
		Distraction: cfg.Categories.Distraction,
	})
	s.logger.Info("dashboard configuration reloaded",
		"focus_apps", len(cfg.Categories.Focus),
		"distraction_apps", len(cfg.Categories.Distraction))
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", "url", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}

// Handler returns the root handler with logging and recovery applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("panic in HTTP handler", "panic", fmt.Sprint(v...))
}
