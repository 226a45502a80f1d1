package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultDirName    = ".config/focuspulse"
	defaultLogName    = "activity_log.csv"
	defaultDBName     = "focuspulse.db"
	defaultConfigName = "config.toml"
)

// Config holds all application configuration
type Config struct {
	// Activity log configuration
	Log LogConfig

	// Database configuration
	Database DatabaseConfig

	// Tracker configuration
	Tracker TrackerConfig

	// Category sets used by the categorizer
	Categories CategoryConfig

	// Optional external labeling collaborator
	Enricher EnricherConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Report configuration
	Report ReportConfig

	// Web server configuration
	Web WebConfig

	// Process logging configuration
	Logging LoggingConfig
}

// LogConfig locates the append-only activity log
type LogConfig struct {
	Path string // CSV file the tracker appends to and the analyzer reads
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file (label cache, error log)
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration // How often to check the focused application
	MinPollInterval time.Duration // Minimum allowed poll interval
	MaxPollInterval time.Duration // Maximum allowed poll interval
	Probe           string        // auto, x11, wayland, darwin, windows
	IncludeTitle    bool          // Append the window title as a sub-label
}

// CategoryConfig holds the two static membership sets
type CategoryConfig struct {
	Focus       []string
	Distraction []string
}

// EnricherConfig configures the optional labeling collaborator
type EnricherConfig struct {
	Provider string // none, simulated, openai
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Mode     string // fill: only unknown labels, override: ask first
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	DefaultRange             string
	TopApps                  int
	ScoreExcellent           float64
	ScoreGood                float64
	ScoreLow                 float64
	HighDistractionThreshold float64 // percent
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// LoggingConfig holds process log configuration
type LoggingConfig struct {
	Level string // debug, info, warn, error
	File  string // Log file used by the background tracker
}

var validProbes = []string{"auto", "x11", "wayland", "darwin", "windows"}

var validProviders = []string{"none", "simulated", "openai"}

var validRanges = []string{"6h", "12h", "24h", "7d"}

// DefaultFocusApps is the focus set shipped with FocusPulse.
var DefaultFocusApps = []string{
	"VSCode", "Code", "PyCharm", "Xcode", "Sublime Text", "IntelliJ IDEA",
	"Notion", "Obsidian", "Microsoft Word", "Pages", "Google Docs",
	"Gmail", "Slack", "Zoom", "Microsoft Teams",
	"Terminal", "iTerm2", "iTerm",
	"Google Chrome", "Safari", "Firefox",
}

// DefaultDistractionApps is the distraction set shipped with FocusPulse.
var DefaultDistractionApps = []string{
	"YouTube", "Netflix", "Prime Video", "TikTok", "Twitch",
	"Twitter", "X", "Reddit", "Instagram", "Facebook",
	"Discord", "Telegram", "WhatsApp", "Messages",
	"Steam", "Epic Games", "App Store",
	"Spotify", "Apple Music", "Music", "Podcast Addict",
}

// DefaultDir returns ~/.config/focuspulse, or a relative directory when the
// home directory cannot be resolved.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "focuspulse"
	}
	return filepath.Join(homeDir, defaultDirName)
}

// DefaultConfigPath returns the config file looked up when none is given
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), defaultConfigName)
}

// Default returns a Config with sensible default values
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Log: LogConfig{
			Path: filepath.Join(dir, defaultLogName),
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dir, defaultDBName),
		},
		Tracker: TrackerConfig{
			PollInterval:    10 * time.Second,
			MinPollInterval: 1 * time.Second,
			MaxPollInterval: 300 * time.Second,
			Probe:           "auto",
			IncludeTitle:    false,
		},
		Categories: CategoryConfig{
			Focus:       append([]string(nil), DefaultFocusApps...),
			Distraction: append([]string(nil), DefaultDistractionApps...),
		},
		Enricher: EnricherConfig{
			Provider: "none",
			Model:    "gpt-4o-mini",
			Timeout:  3 * time.Second,
			Mode:     "fill",
		},
		Daemon: DaemonConfig{
			PIDFile: filepath.Join(os.TempDir(), fmt.Sprintf("focuspulse-%d.pid", os.Getuid())),
		},
		Report: ReportConfig{
			DefaultRange:             "24h",
			TopApps:                  10,
			ScoreExcellent:           75,
			ScoreGood:                50,
			ScoreLow:                 30,
			HighDistractionThreshold: 30,
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 8501,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(dir, "focuspulse.log"),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Log.Path == "" {
		return fmt.Errorf("activity log path cannot be empty")
	}

	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if !contains(validProbes, c.Tracker.Probe) {
		return fmt.Errorf("unknown probe %q (valid: %s)", c.Tracker.Probe, strings.Join(validProbes, ", "))
	}

	if !contains(validProviders, c.Enricher.Provider) {
		return fmt.Errorf("unknown enricher provider %q (valid: %s)", c.Enricher.Provider, strings.Join(validProviders, ", "))
	}

	if c.Enricher.Mode != "fill" && c.Enricher.Mode != "override" {
		return fmt.Errorf("enricher mode must be fill or override, got %q", c.Enricher.Mode)
	}

	if c.Enricher.Timeout <= 0 {
		return fmt.Errorf("enricher timeout must be positive")
	}

	if !contains(validRanges, c.Report.DefaultRange) {
		return fmt.Errorf("unknown default range %q (valid: %s)", c.Report.DefaultRange, strings.Join(validRanges, ", "))
	}

	if c.Report.TopApps < 1 {
		return fmt.Errorf("top apps limit must be at least 1, got %d", c.Report.TopApps)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// String returns a string representation of the config.
// The enricher API key is never printed.
func (c *Config) String() string {
	apiKey := "(not set)"
	if c.Enricher.APIKey != "" {
		apiKey = "(set)"
	}
	return fmt.Sprintf(`Configuration:
  Activity Log:
    Path: %s
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Probe: %s
    Include Title: %v
  Categories:
    Focus: %d apps
    Distraction: %d apps
  Enricher:
    Provider: %s
    Model: %s
    Mode: %s
    Timeout: %v
    API Key: %s
  Daemon:
    PID File: %s
  Report:
    Default Range: %s
    Top Apps: %d
  Web:
    Host: %s
    Port: %d
  Logging:
    Level: %s
    File: %s`,
		c.Log.Path,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.Probe,
		c.Tracker.IncludeTitle,
		len(c.Categories.Focus),
		len(c.Categories.Distraction),
		c.Enricher.Provider,
		c.Enricher.Model,
		c.Enricher.Mode,
		c.Enricher.Timeout,
		apiKey,
		c.Daemon.PIDFile,
		c.Report.DefaultRange,
		c.Report.TopApps,
		c.Web.Host,
		c.Web.Port,
		c.Logging.Level,
		c.Logging.File,
	)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
