package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/focuspulse/focuspulse/internal/categorizer"
	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/database"
	"github.com/focuspulse/focuspulse/internal/labeler"
	"github.com/focuspulse/focuspulse/internal/logging"
	"github.com/focuspulse/focuspulse/internal/reporter"
	"github.com/focuspulse/focuspulse/internal/tui"
	"github.com/focuspulse/focuspulse/pkg/detector"
	"github.com/focuspulse/focuspulse/pkg/integrations/hybrid"
	"github.com/focuspulse/focuspulse/pkg/probe"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "focuspulse"

// configPath is set by the global --config flag.
var configPath string

func main() {
	args := parseGlobalFlags(os.Args[1:])
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]

	switch command {
	case "track":
		if code := runTrack(rest); code != 0 {
			os.Exit(code)
		}
	case "start":
		startDaemon(rest)
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "dashboard", "serve":
		runDashboard(rest)
	case "report":
		generateReport(rest)
	case "top":
		runTop(rest)
	case "categorize":
		explainLabel(rest)
	case "errors":
		listErrors(rest)
	case "cache":
		manageCache(rest)
	case "config":
		cfg := loadConfig()
		fmt.Printf("Config file: %s\n", resolvedConfigPath())
		fmt.Println(cfg.String())
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`focuspulse - focus tracker and productivity dashboard

Usage:
  focuspulse [--config PATH] <command> [options]

Commands:
  track [--interval N] [--duration D]   Run the tracker in the foreground
  start [--interval N]                  Start the tracker in the background
  stop                                  Stop the background tracker
  status                                Show tracker status and current focused app
  dashboard [--port P] [--host H]       Serve the web dashboard (default localhost:8501)
  report [range] [--json] [--top N]     Print a report (range: 6h, 12h, 24h, 7d)
  top [--range R]                       Live terminal view
  categorize <label>                    Show how a label is classified
  errors [--limit N] [--clear] [--older-than D]
                                        List (or delete) recorded tracker errors
  cache clear|stats                     Drop or count cached labeler answers
  config                                Print the effective configuration
  version                               Show version information
  help                                  Show this help message

Examples:
  focuspulse start
  focuspulse report 24h
  focuspulse report 7d --json
  focuspulse dashboard --port 9000
  focuspulse categorize "Google Chrome: YouTube"
  focuspulse stop

Environment Variables:
  FOCUSPULSE_CONFIG             Config file path (toml, yaml or json)
  FOCUSPULSE_LOG_PATH           Activity log (CSV) path
  FOCUSPULSE_DB_PATH            Database file path
  FOCUSPULSE_POLL_INTERVAL      Poll interval in seconds (1-300)
  FOCUSPULSE_PROBE              auto, x11, wayland, darwin, windows
  FOCUSPULSE_INCLUDE_TITLE      Append window titles to labels (true/false)
  FOCUSPULSE_FOCUS_APPS         Extra focus apps, comma separated
  FOCUSPULSE_DISTRACTION_APPS   Extra distraction apps, comma separated
  FOCUSPULSE_ENRICHER           none, simulated, openai
  OPENAI_API_KEY                Key for the openai enricher
  FOCUSPULSE_WEB_PORT           Dashboard port
  FOCUSPULSE_LOG_LEVEL          debug, info, warn, error

Version: %s
`, version)
}

// parseGlobalFlags strips --config from the front of args.
func parseGlobalFlags(args []string) []string {
	for len(args) > 0 {
		switch {
		case args[0] == "--config" || args[0] == "-config":
			if len(args) < 2 {
				log.Fatalf("--config requires a path")
			}
			configPath = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--config="):
			configPath = strings.TrimPrefix(args[0], "--config=")
			args = args[1:]
		default:
			return args
		}
	}
	return args
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("FOCUSPULSE_CONFIG"); p != "" {
		return p
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// openStateDB opens the label cache / error database. Failures are logged;
// every caller can work without it.
func openStateDB(cfg *config.Config, logger *slog.Logger) (*database.DB, *database.Repository) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Warn("state database unavailable", "path", cfg.Database.Path, "error", err)
		return nil, nil
	}
	return db, database.NewRepository(db)
}

func newCategorizer(cfg *config.Config, repo *database.Repository, logger *slog.Logger) *categorizer.Categorizer {
	var store labeler.Store
	if repo != nil {
		store = repo
	}
	l := labeler.New(cfg.Enricher, store, logger)
	return categorizer.New(categorizer.Rules{
		Focus:       cfg.Categories.Focus,
		Distraction: cfg.Categories.Distraction,
	}, l, categorizer.Options{
		Mode:    cfg.Enricher.Mode,
		Timeout: cfg.Enricher.Timeout,
		Logger:  logger,
	})
}

func stopDaemon() {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Tracker is not running")
		return
	}

	fmt.Printf("Stopping tracker (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		log.Fatalf("Failed to stop tracker: %v", err)
	}

	fmt.Println("Tracker stopped successfully")
}

func showStatus() {
	cfg := loadConfig()
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
	}
	fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
	fmt.Printf("Activity Log: %s\n", cfg.Log.Path)
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Printf("Process Log: %s\n", cfg.Logging.File)

	det, err := detector.New(cfg.Tracker.Probe)
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return
	}
	p := probe.New(det, cfg.Tracker.IncludeTitle).WithLogger(logging.Discard())
	defer p.Close()

	fmt.Printf("\nCurrent Window:\n")
	fmt.Printf("  Label: %s\n", p.CurrentForegroundApp())
	fmt.Printf("  Display: %s\n", det.GetDisplayServer())
	if h, ok := det.(*hybrid.Detector); ok {
		fmt.Printf("\n%s", h.GetStatus())
	}
}

func generateReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "print JSON")
	top := fs.Int("top", 0, "number of apps to list")
	rangeName := parseWithPositional(fs, args)

	cfg := loadConfig()
	logger := logging.Discard()
	db, repo := openStateDB(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	rep := reporter.New(cfg, newCategorizer(cfg, repo, logger)).WithLogger(logger)
	report, err := rep.GenerateReport(context.Background(), rangeName)
	if err != nil {
		if errors.Is(err, reporter.ErrInvalidRange) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatalf("Failed to generate report: %v", err)
	}

	if *jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			log.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
		return
	}

	n := cfg.Report.TopApps
	if *top > 0 {
		n = *top
	}
	fmt.Print(rep.FormatReportText(report, n))
}

func runTop(args []string) {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	rangeName := fs.String("range", "", "initial range (6h, 12h, 24h, 7d)")
	fs.Parse(args)

	cfg := loadConfig()
	if *rangeName == "" {
		*rangeName = cfg.Report.DefaultRange
	}
	if _, err := reporter.ParseRange(*rangeName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Discard()
	db, repo := openStateDB(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	rep := reporter.New(cfg, newCategorizer(cfg, repo, logger)).WithLogger(logger)
	if err := tui.Run(context.Background(), rep, cfg.Log.Path, *rangeName, cfg.Report.TopApps, logger); err != nil {
		log.Fatalf("Live view failed: %v", err)
	}
}

func explainLabel(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: focuspulse categorize <label>")
		os.Exit(1)
	}
	label := strings.Join(args, " ")

	cfg := loadConfig()
	logger := logging.Discard()
	db, repo := openStateDB(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	c := newCategorizer(cfg, repo, logger)
	d := c.Explain(context.Background(), label)

	fmt.Printf("Label:    %s\n", label)
	fmt.Printf("Category: %s\n", d.Category)
	switch d.Source {
	case categorizer.SourceExact:
		fmt.Printf("Reason:   exact match on %q\n", d.Term)
	case categorizer.SourceSegment:
		fmt.Printf("Reason:   title part matches %q\n", d.Term)
	case categorizer.SourceWord:
		fmt.Printf("Reason:   app name contains %q\n", d.Term)
	case categorizer.SourceLabeler:
		fmt.Printf("Reason:   labeler (%s, confidence %.2f", d.Result.Model, d.Result.Confidence)
		if d.Result.Cached {
			fmt.Print(", cached")
		}
		fmt.Println(")")
		if d.Result.Rationale != "" {
			fmt.Printf("          %s\n", d.Result.Rationale)
		}
		if len(d.Result.Tags) > 0 {
			fmt.Printf("Tags:     %s\n", strings.Join(d.Result.Tags, ", "))
		}
	default:
		fmt.Println("Reason:   in neither set")
	}
}

// errorRetention is how long the tracker keeps sampler errors.
const errorRetention = 30 * 24 * time.Hour

// pruneErrors deletes errors recorded more than age before now.
func pruneErrors(repo *database.Repository, age time.Duration, now time.Time) (int64, error) {
	return repo.DeleteOldErrors(now.Add(-age))
}

func listErrors(args []string) {
	fs := flag.NewFlagSet("errors", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of errors to show")
	clearAll := fs.Bool("clear", false, "delete all recorded errors")
	olderThan := fs.Duration("older-than", 0, "delete errors older than this age (e.g. 720h)")
	fs.Parse(args)

	cfg := loadConfig()
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	if *clearAll {
		if err := repo.ClearErrors(); err != nil {
			log.Fatalf("Failed to clear errors: %v", err)
		}
		fmt.Println("Error log cleared")
		return
	}

	if *olderThan > 0 {
		n, err := pruneErrors(repo, *olderThan, time.Now())
		if err != nil {
			log.Fatalf("Failed to prune errors: %v", err)
		}
		fmt.Printf("Deleted %d errors older than %s\n", n, *olderThan)
		return
	}

	errs, err := repo.ListErrors(*limit)
	if err != nil {
		log.Fatalf("Failed to list errors: %v", err)
	}
	if len(errs) == 0 {
		fmt.Println("No errors recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tERROR")
	for _, e := range errs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Format(time.DateTime), e.Source, e.ErrorMsg)
	}
	w.Flush()
}

func manageCache(args []string) {
	if len(args) == 0 || (args[0] != "clear" && args[0] != "stats") {
		fmt.Println("Usage: focuspulse cache clear|stats")
		os.Exit(1)
	}

	cfg := loadConfig()
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	if args[0] == "stats" {
		n, err := repo.CountLabels()
		if err != nil {
			log.Fatalf("Failed to count cached labels: %v", err)
		}
		fmt.Printf("Cached labels: %d\n", n)
		return
	}

	n, err := repo.ClearLabels()
	if err != nil {
		log.Fatalf("Failed to clear label cache: %v", err)
	}
	fmt.Printf("Removed %d cached labels\n", n)
}

// parseWithPositional parses fs allowing one positional argument before or
// between the flags, and returns it.
func parseWithPositional(fs *flag.FlagSet, args []string) string {
	fs.Parse(args)
	if fs.NArg() == 0 {
		return ""
	}
	positional := fs.Arg(0)
	fs.Parse(fs.Args()[1:])
	return positional
}
