// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init configures slog to log to stdout and, when filePath is set, to that
// file as well. The returned closer releases the file; it is never nil.
// The stdlib log package is redirected to the same writer.
func Init(level, filePath string) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	if filePath == "" {
		logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
		slog.SetDefault(logger)
		return logger, nopCloser{}
	}

	_ = os.MkdirAll(filepath.Dir(filePath), 0o755)
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
		logger.Error("failed to open log file; falling back to stdout only", "path", filePath, "error", err)
		slog.SetDefault(logger)
		return logger, nopCloser{}
	}

	mw := io.MultiWriter(f, os.Stdout)
	logger := slog.New(slog.NewTextHandler(mw, opts))
	slog.SetDefault(logger)

	// keep legacy log.Printf output aligned with slog
	log.SetOutput(mw)
	return logger, f
}

// Discard returns a logger that drops everything. Used by tests and by
// commands whose output is the terminal itself.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
