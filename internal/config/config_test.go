package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FOCUSPULSE_CONFIG", "FOCUSPULSE_LOG_PATH", "FOCUSPULSE_DB_PATH",
		"FOCUSPULSE_POLL_INTERVAL", "FOCUSPULSE_PROBE", "FOCUSPULSE_INCLUDE_TITLE",
		"FOCUSPULSE_FOCUS_APPS", "FOCUSPULSE_DISTRACTION_APPS", "FOCUSPULSE_ENRICHER",
		"FOCUSPULSE_OPENAI_API_KEY", "OPENAI_API_KEY", "FOCUSPULSE_ENRICHER_MODEL",
		"FOCUSPULSE_PID_FILE", "FOCUSPULSE_WEB_HOST", "FOCUSPULSE_WEB_PORT",
		"FOCUSPULSE_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"interval too low", func(c *Config) { c.Tracker.PollInterval = 500 * time.Millisecond }, true},
		{"interval too high", func(c *Config) { c.Tracker.PollInterval = 10 * time.Minute }, true},
		{"unknown probe", func(c *Config) { c.Tracker.Probe = "quartz" }, true},
		{"unknown provider", func(c *Config) { c.Enricher.Provider = "llama" }, true},
		{"bad mode", func(c *Config) { c.Enricher.Mode = "always" }, true},
		{"bad range", func(c *Config) { c.Report.DefaultRange = "3d" }, true},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }, true},
		{"empty log path", func(c *Config) { c.Log.Path = "" }, true},
		{"override mode", func(c *Config) { c.Enricher.Mode = "override" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
[tracker]
interval = 5
include_title = true

[categories]
focus = ["Emacs"]

[web]
port = 9000
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
tracker:
  interval: 5
  include_title: true
categories:
  focus: [Emacs]
web:
  port: 9000
`,
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"tracker":{"interval":5,"include_title":true},"categories":{"focus":["Emacs"]},"web":{"port":9000}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg := Default()
			require.NoError(t, LoadFile(path, cfg))

			assert.Equal(t, 5*time.Second, cfg.Tracker.PollInterval)
			assert.True(t, cfg.Tracker.IncludeTitle)
			assert.Equal(t, []string{"Emacs"}, cfg.Categories.Focus)
			assert.Equal(t, DefaultDistractionApps, cfg.Categories.Distraction)
			assert.Equal(t, 9000, cfg.Web.Port)
			assert.Equal(t, "localhost", cfg.Web.Host)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), cfg)
	require.NoError(t, err)
	assert.Equal(t, Default().Tracker.PollInterval, cfg.Tracker.PollInterval)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tracker\ninterval = "), 0644))

	err := LoadFile(path, Default())
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[web]\nport = 9000\n[enricher]\nprovider = \"simulated\"\n"), 0644))

	t.Setenv("FOCUSPULSE_WEB_PORT", "9100")
	t.Setenv("FOCUSPULSE_FOCUS_APPS", "Emacs, vscode")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Web.Port)
	assert.Equal(t, "simulated", cfg.Enricher.Provider)
	assert.Contains(t, cfg.Categories.Focus, "Emacs")

	// "vscode" duplicates "VSCode" case-insensitively
	count := 0
	for _, app := range cfg.Categories.Focus {
		if app == "vscode" {
			count++
		}
	}
	assert.Zero(t, count)
}

func TestLoadFromEnvIgnoresInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOCUSPULSE_POLL_INTERVAL", "0")
	t.Setenv("FOCUSPULSE_WEB_PORT", "not-a-port")

	cfg := New()
	assert.Equal(t, 10*time.Second, cfg.Tracker.PollInterval)
	assert.Equal(t, 8501, cfg.Web.Port)
}

func TestOpenAIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg := New()
	assert.Equal(t, "sk-fallback", cfg.Enricher.APIKey)
	assert.NotContains(t, cfg.String(), "sk-fallback")
}

func TestLoaderWatchReloads(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tracker]\ninterval = 5\n"), 0644))

	loader := NewLoader(path, nil)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Tracker.PollInterval)

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, loader.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("[tracker]\ninterval = 20\n"), 0644))

	select {
	case c := <-changed:
		assert.Equal(t, 20*time.Second, c.Tracker.PollInterval)
		assert.Equal(t, 20*time.Second, loader.Config().Tracker.PollInterval)
	case <-time.After(5 * time.Second):
		t.Skip("no filesystem notification received in this environment")
	}
}
