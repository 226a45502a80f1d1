package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default and file values
func LoadFromEnv(cfg *Config) {
	if logPath := os.Getenv("FOCUSPULSE_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}

	if dbPath := os.Getenv("FOCUSPULSE_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Tracker configuration
	if pollInterval := os.Getenv("FOCUSPULSE_POLL_INTERVAL"); pollInterval != "" {
		if seconds, err := strconv.Atoi(pollInterval); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Tracker.MinPollInterval && interval <= cfg.Tracker.MaxPollInterval {
				cfg.Tracker.PollInterval = interval
			}
		}
	}

	if probe := os.Getenv("FOCUSPULSE_PROBE"); probe != "" {
		cfg.Tracker.Probe = strings.ToLower(probe)
	}

	if includeTitle := os.Getenv("FOCUSPULSE_INCLUDE_TITLE"); includeTitle != "" {
		if val, err := strconv.ParseBool(includeTitle); err == nil {
			cfg.Tracker.IncludeTitle = val
		}
	}

	// Category sets, comma separated, extend the configured sets
	if focus := os.Getenv("FOCUSPULSE_FOCUS_APPS"); focus != "" {
		cfg.Categories.Focus = appendUnique(cfg.Categories.Focus, splitList(focus)...)
	}

	if distraction := os.Getenv("FOCUSPULSE_DISTRACTION_APPS"); distraction != "" {
		cfg.Categories.Distraction = appendUnique(cfg.Categories.Distraction, splitList(distraction)...)
	}

	// Enricher configuration
	if provider := os.Getenv("FOCUSPULSE_ENRICHER"); provider != "" {
		cfg.Enricher.Provider = strings.ToLower(provider)
	}

	if apiKey := os.Getenv("FOCUSPULSE_OPENAI_API_KEY"); apiKey != "" {
		cfg.Enricher.APIKey = apiKey
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && cfg.Enricher.APIKey == "" {
		cfg.Enricher.APIKey = apiKey
	}

	if model := os.Getenv("FOCUSPULSE_ENRICHER_MODEL"); model != "" {
		cfg.Enricher.Model = model
	}

	// Daemon configuration
	if pidFile := os.Getenv("FOCUSPULSE_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Web configuration
	if webHost := os.Getenv("FOCUSPULSE_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("FOCUSPULSE_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	if level := os.Getenv("FOCUSPULSE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}

// Load builds the effective configuration: defaults, then the config file at
// path (the default location when empty), then the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FOCUSPULSE_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		return nil, err
	}
	LoadFromEnv(cfg)
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		seen[strings.ToLower(item)] = struct{}{}
	}
	for _, item := range items {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		list = append(list, item)
	}
	return list
}
