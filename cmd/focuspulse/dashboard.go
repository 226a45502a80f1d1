package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/focuspulse/focuspulse/internal/config"
	"github.com/focuspulse/focuspulse/internal/daemon"
	"github.com/focuspulse/focuspulse/internal/logging"
	"github.com/focuspulse/focuspulse/internal/metrics"
	"github.com/focuspulse/focuspulse/internal/reporter"
	"github.com/focuspulse/focuspulse/internal/web"
)

func runDashboard(args []string) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	port := fs.Int("port", 0, "listen port (default from config, 8501)")
	host := fs.String("host", "", "listen host (default from config, localhost)")
	fs.Parse(args)

	loader := config.NewLoader(resolvedConfigPath(), nil)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *host != "" {
		cfg.Web.Host = *host
	}

	logger, closer := logging.Init(cfg.Logging.Level, "")
	defer closer.Close()

	db, repo := openStateDB(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	m := metrics.NewMetrics()
	rep := reporter.New(cfg, newCategorizer(cfg, repo, logger)).
		WithMetrics(m).
		WithLogger(logger)

	srv := web.NewServer(rep, logger, *port,
		web.WithMetrics(m),
		web.WithDaemon(daemon.New(cfg.Daemon.PIDFile)),
		web.WithVersion(version),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader.OnChange(func(next *config.Config) {
		// host and port are fixed for the lifetime of the listener
		if *host != "" {
			next.Web.Host = *host
		}
		srv.Reload(next)
	})
	if err := loader.Watch(ctx); err != nil {
		logger.Warn("config hot reload disabled", "path", loader.Path(), "error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	logger.Info("dashboard available", "url", "http://"+srv.GetAddress(), "log", cfg.Log.Path)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		logger.Error("web server error", "error", err)
		cancel()
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down web server", "error", err)
	}
}
