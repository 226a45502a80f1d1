package tui

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// WatchLog signals on the returned channel whenever the file at path is
// written or replaced. Bursts are coalesced. The channel closes when ctx is
// done.
func WatchLog(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	target := filepath.Clean(path)

	go func() {
		defer close(out)
		defer watcher.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == target &&
					(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					debounce = time.After(200 * time.Millisecond)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("log watcher error", "error", err)
			case <-debounce:
				debounce = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Run starts the live view and blocks until the user quits or ctx is done.
func Run(ctx context.Context, source ReportSource, logPath, rangeName string, topN int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := WatchLog(ctx, logPath, logger)
	if err != nil {
		logger.Warn("cannot watch activity log, refreshing on a timer only", "path", logPath, "error", err)
		changes = nil
	}

	m := New(ctx, source, rangeName, topN, changes)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
