package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/logging"
	"github.com/focuspulse/focuspulse/internal/logstore"
	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/internal/tracker"
	"github.com/focuspulse/focuspulse/pkg/detector"
	"github.com/focuspulse/focuspulse/pkg/probe"
)

// runTrack returns the process exit code so deferred cleanup runs before the
// caller exits.
func runTrack(args []string) int {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	interval := fs.Int("interval", 0, "poll interval in seconds")
	duration := fs.Duration("duration", 0, "stop after this long (e.g. 90m); 0 runs until interrupted")
	fs.Parse(args)

	cfg := loadConfig()
	if *interval > 0 {
		if err := cfg.SetPollInterval(time.Duration(*interval) * time.Second); err != nil {
			log.Fatalf("Invalid interval: %v", err)
		}
	}

	// The background child has no terminal; it logs to the process log file.
	logFile := ""
	if daemon.IsChild() {
		logFile = cfg.Logging.File
	}
	logger, closer := logging.Init(cfg.Logging.Level, logFile)
	defer closer.Close()

	var dm *daemon.Daemon
	if daemon.IsChild() {
		dm = daemon.New(cfg.Daemon.PIDFile)
		if err := dm.WritePID(); err != nil {
			logger.Error("failed to write PID file", "error", err)
			return 1
		}
		defer dm.RemovePID()
	}

	if err := track(cfg, *duration, logger); err != nil {
		logger.Error("tracker failed", "error", err)
		return 1
	}
	return 0
}

// lastRecord returns the newest record already in the log, or nil.
func lastRecord(path string) (*models.ActivityRecord, error) {
	snap, err := logstore.ReadAll(path)
	if err != nil {
		return nil, err
	}
	if len(snap.Records) == 0 {
		return nil, nil
	}
	return &snap.Records[len(snap.Records)-1], nil
}

func track(cfg *config.Config, duration time.Duration, logger *slog.Logger) error {
	last, err := lastRecord(cfg.Log.Path)
	if err != nil {
		return err
	}

	store, err := logstore.Open(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	db, repo := openStateDB(cfg, logger)
	if db != nil {
		defer db.Close()
	}
	if repo != nil {
		if n, err := pruneErrors(repo, errorRetention, time.Now()); err != nil {
			logger.Warn("failed to prune old errors", "error", err)
		} else if n > 0 {
			logger.Info("pruned old errors", "count", n)
		}
	}

	det, err := detector.New(cfg.Tracker.Probe)
	if err != nil {
		return fmt.Errorf("failed to initialize window detector: %w", err)
	}
	p := probe.New(det, cfg.Tracker.IncludeTitle).WithLogger(logger)
	defer p.Close()

	logger.Info("window detector initialized", "display_server", det.GetDisplayServer(), "available", det.IsAvailable())

	opts := tracker.Options{
		Interval: cfg.Tracker.PollInterval,
		Duration: duration,
		Initial:  tracker.Resume(last),
		Logger:   logger,
	}
	if repo != nil {
		opts.Errors = repo
	}
	svc := tracker.NewService(p, store, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", "signal", sig.String())
			svc.Stop()
		case <-ctx.Done():
		}
	}()

	logger.Info("tracking focus", "log", cfg.Log.Path, "interval", cfg.Tracker.PollInterval, "probe", cfg.Tracker.Probe)
	if err := svc.Run(ctx); err != nil {
		return err
	}

	stats := svc.Stats()
	logger.Info("tracker stopped", "samples", stats.Samples, "records", stats.Records, "failures", stats.Failures)
	return nil
}

func startDaemon(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	interval := fs.Int("interval", 0, "poll interval in seconds")
	fs.Parse(args)

	cfg := loadConfig()
	if *interval > 0 {
		if err := cfg.SetPollInterval(time.Duration(*interval) * time.Second); err != nil {
			log.Fatalf("Invalid interval: %v", err)
		}
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("%v (PID: %d)", daemon.ErrAlreadyRunning, pid)
	}

	childArgs := []string{"--config", resolvedConfigPath(), "track"}
	if *interval > 0 {
		childArgs = append(childArgs, "--interval", strconv.Itoa(*interval))
	}

	pid, err = daemon.Spawn(childArgs)
	if err != nil {
		log.Fatalf("Failed to start tracker: %v", err)
	}

	fmt.Printf("Tracker started successfully (PID: %d)\n", pid)
	fmt.Printf("Activity log: %s\n", cfg.Log.Path)
	fmt.Printf("Logs: %s\n", cfg.Logging.File)
}
