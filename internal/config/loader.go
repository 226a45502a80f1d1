package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of the configuration. Zero values mean
// "keep the current value".
type fileConfig struct {
	Log struct {
		Path string `toml:"path" yaml:"path" json:"path"`
	} `toml:"log" yaml:"log" json:"log"`

	Database struct {
		Path string `toml:"path" yaml:"path" json:"path"`
	} `toml:"database" yaml:"database" json:"database"`

	Tracker struct {
		Interval     int    `toml:"interval" yaml:"interval" json:"interval"` // seconds
		Probe        string `toml:"probe" yaml:"probe" json:"probe"`
		IncludeTitle *bool  `toml:"include_title" yaml:"include_title" json:"include_title"`
	} `toml:"tracker" yaml:"tracker" json:"tracker"`

	Categories struct {
		Focus       []string `toml:"focus" yaml:"focus" json:"focus"`
		Distraction []string `toml:"distraction" yaml:"distraction" json:"distraction"`
	} `toml:"categories" yaml:"categories" json:"categories"`

	Enricher struct {
		Provider       string `toml:"provider" yaml:"provider" json:"provider"`
		APIKey         string `toml:"api_key" yaml:"api_key" json:"api_key"`
		Model          string `toml:"model" yaml:"model" json:"model"`
		BaseURL        string `toml:"base_url" yaml:"base_url" json:"base_url"`
		TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
		Mode           string `toml:"mode" yaml:"mode" json:"mode"`
	} `toml:"enricher" yaml:"enricher" json:"enricher"`

	Daemon struct {
		PIDFile string `toml:"pid_file" yaml:"pid_file" json:"pid_file"`
	} `toml:"daemon" yaml:"daemon" json:"daemon"`

	Report struct {
		DefaultRange             string  `toml:"default_range" yaml:"default_range" json:"default_range"`
		TopApps                  int     `toml:"top_apps" yaml:"top_apps" json:"top_apps"`
		ScoreExcellent           float64 `toml:"score_excellent" yaml:"score_excellent" json:"score_excellent"`
		ScoreGood                float64 `toml:"score_good" yaml:"score_good" json:"score_good"`
		ScoreLow                 float64 `toml:"score_low" yaml:"score_low" json:"score_low"`
		HighDistractionThreshold float64 `toml:"high_distraction_threshold" yaml:"high_distraction_threshold" json:"high_distraction_threshold"`
	} `toml:"report" yaml:"report" json:"report"`

	Web struct {
		Host string `toml:"host" yaml:"host" json:"host"`
		Port int    `toml:"port" yaml:"port" json:"port"`
	} `toml:"web" yaml:"web" json:"web"`

	Logging struct {
		Level string `toml:"level" yaml:"level" json:"level"`
		File  string `toml:"file" yaml:"file" json:"file"`
	} `toml:"logging" yaml:"logging" json:"logging"`
}

// LoadFile overlays the config file at path onto cfg. A missing file is not
// an error. The format is chosen by extension; unknown extensions are tried
// as TOML, then YAML, then JSON.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	default:
		if err := autoDetectAndParse(data, &fc); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}

	fc.apply(cfg)
	return nil
}

func autoDetectAndParse(data []byte, fc *fileConfig) error {
	if _, err := toml.Decode(string(data), fc); err == nil {
		return nil
	}
	*fc = fileConfig{}
	if err := yaml.Unmarshal(data, fc); err == nil {
		return nil
	}
	*fc = fileConfig{}
	if err := json.Unmarshal(data, fc); err == nil {
		return nil
	}
	return fmt.Errorf("unrecognized config format")
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.Log.Path != "" {
		cfg.Log.Path = expandHome(fc.Log.Path)
	}
	if fc.Database.Path != "" {
		cfg.Database.Path = expandHome(fc.Database.Path)
	}

	if fc.Tracker.Interval > 0 {
		cfg.Tracker.PollInterval = time.Duration(fc.Tracker.Interval) * time.Second
	}
	if fc.Tracker.Probe != "" {
		cfg.Tracker.Probe = fc.Tracker.Probe
	}
	if fc.Tracker.IncludeTitle != nil {
		cfg.Tracker.IncludeTitle = *fc.Tracker.IncludeTitle
	}

	// Sets in the file replace the built-in ones.
	if len(fc.Categories.Focus) > 0 {
		cfg.Categories.Focus = append([]string(nil), fc.Categories.Focus...)
	}
	if len(fc.Categories.Distraction) > 0 {
		cfg.Categories.Distraction = append([]string(nil), fc.Categories.Distraction...)
	}

	if fc.Enricher.Provider != "" {
		cfg.Enricher.Provider = fc.Enricher.Provider
	}
	if fc.Enricher.APIKey != "" {
		cfg.Enricher.APIKey = fc.Enricher.APIKey
	}
	if fc.Enricher.Model != "" {
		cfg.Enricher.Model = fc.Enricher.Model
	}
	if fc.Enricher.BaseURL != "" {
		cfg.Enricher.BaseURL = fc.Enricher.BaseURL
	}
	if fc.Enricher.TimeoutSeconds > 0 {
		cfg.Enricher.Timeout = time.Duration(fc.Enricher.TimeoutSeconds) * time.Second
	}
	if fc.Enricher.Mode != "" {
		cfg.Enricher.Mode = fc.Enricher.Mode
	}

	if fc.Daemon.PIDFile != "" {
		cfg.Daemon.PIDFile = expandHome(fc.Daemon.PIDFile)
	}

	if fc.Report.DefaultRange != "" {
		cfg.Report.DefaultRange = fc.Report.DefaultRange
	}
	if fc.Report.TopApps > 0 {
		cfg.Report.TopApps = fc.Report.TopApps
	}
	if fc.Report.ScoreExcellent > 0 {
		cfg.Report.ScoreExcellent = fc.Report.ScoreExcellent
	}
	if fc.Report.ScoreGood > 0 {
		cfg.Report.ScoreGood = fc.Report.ScoreGood
	}
	if fc.Report.ScoreLow > 0 {
		cfg.Report.ScoreLow = fc.Report.ScoreLow
	}
	if fc.Report.HighDistractionThreshold > 0 {
		cfg.Report.HighDistractionThreshold = fc.Report.HighDistractionThreshold
	}

	if fc.Web.Host != "" {
		cfg.Web.Host = fc.Web.Host
	}
	if fc.Web.Port > 0 {
		cfg.Web.Port = fc.Web.Port
	}

	if fc.Logging.Level != "" {
		cfg.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.File != "" {
		cfg.Logging.File = expandHome(fc.Logging.File)
	}
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

// Loader handles configuration loading, watching, and hot-reloading.
type Loader struct {
	path     string
	config   *Config
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	logger   *slog.Logger
}

// NewLoader creates a new configuration loader for the file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = DefaultConfigPath()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Path returns the watched config file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the file, applies environment overrides and validates.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	if err := LoadFile(l.path, cfg); err != nil {
		return nil, err
	}
	LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Config returns the most recently loaded configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// OnChange registers a callback invoked after a successful reload.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. Invalid files are logged and the previous configuration is kept.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace files instead of writing them.
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop(ctx)
	return nil
}

func (l *Loader) watchLoop(ctx context.Context) {
	defer l.watcher.Close()

	var debounce <-chan time.Time
	const debounceDelay = 100 * time.Millisecond
	target := filepath.Clean(l.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(debounceDelay)
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("config watcher error", "error", err)

		case <-debounce:
			debounce = nil
			l.reload()
		}
	}
}

func (l *Loader) reload() {
	cfg, err := l.Load()
	if err != nil {
		l.logger.Warn("config reload failed, keeping previous configuration", "path", l.path, "error", err)
		return
	}
	l.logger.Info("config reloaded", "path", l.path)

	l.mu.RLock()
	callbacks := append([]func(*Config){}, l.onChange...)
	l.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}
