// Package tracker implements the sampling loop: poll the probe, record each
// change of focused application.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/focuspulse/focuspulse/internal/models"
	"github.com/focuspulse/focuspulse/pkg/probe"
)

// Appender persists activity records.
type Appender interface {
	Append(rec models.ActivityRecord) error
}

// ErrorRecorder keeps sampler failures for the operator.
type ErrorRecorder interface {
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// State is what the loop carries from one sample to the next.
type State struct {
	LastLabel string
	HasLast   bool
}

// Step decides whether label is a transition. It returns the state to adopt
// once the record, if any, has been persisted.
func Step(state State, label string, now time.Time) (State, *models.ActivityRecord) {
	if state.HasLast && state.LastLabel == label {
		return state, nil
	}
	return State{LastLabel: label, HasLast: true}, &models.ActivityRecord{Timestamp: now, AppName: label}
}

// Options configures a Service.
type Options struct {
	Interval time.Duration
	Duration time.Duration // stop after this long; zero runs until cancelled
	Errors   ErrorRecorder // optional
	Initial  State         // state left by a previous run, usually the log's last record
	Logger   *slog.Logger
	Now      func() time.Time
}

// Stats summarizes a run.
type Stats struct {
	Samples  int64
	Records  int64
	Failures int64
}

type Service struct {
	probe    probe.Probe
	log      Appender
	opts     Options
	logger   *slog.Logger
	mu       sync.Mutex
	state    State
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	samples  atomic.Int64
	records  atomic.Int64
	failures atomic.Int64
}

func NewService(p probe.Probe, log Appender, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		probe:    p,
		log:      log,
		opts:     opts,
		logger:   opts.Logger,
		state:    opts.Initial,
		stopChan: make(chan struct{}),
	}
}

// Run samples immediately, then on every tick, until ctx is done, Stop is
// called or the configured duration elapses.
func (s *Service) Run(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", s.opts.Interval)
	}
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker is already running")
	}
	defer s.running.Store(false)

	s.logger.Info("starting tracker", "interval", s.opts.Interval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if s.opts.Duration > 0 {
		timer := time.NewTimer(s.opts.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	s.sample()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracker stopped by context", "records", s.records.Load())
			return nil

		case <-s.stopChan:
			s.logger.Info("tracker stopped", "records", s.records.Load())
			return nil

		case <-deadline:
			s.logger.Info("tracker run duration elapsed", "duration", s.opts.Duration, "records", s.records.Load())
			return nil

		case <-ticker.C:
			s.sample()
		}
	}
}

// Stop ends a running loop. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// State returns the last committed state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Resume returns the state to continue from after the given record, the last
// one already in the log.
func Resume(last *models.ActivityRecord) State {
	if last == nil {
		return State{}
	}
	return State{LastLabel: last.AppName, HasLast: true}
}

// Stats returns counters for the current run.
func (s *Service) Stats() Stats {
	return Stats{
		Samples:  s.samples.Load(),
		Records:  s.records.Load(),
		Failures: s.failures.Load(),
	}
}

// sample performs one iteration. A failed append leaves the state untouched
// so the same transition is attempted again on the next tick.
func (s *Service) sample() {
	s.samples.Add(1)
	label := s.probe.CurrentForegroundApp()

	next, rec := Step(s.State(), label, s.opts.Now())
	if rec == nil {
		return
	}

	if err := s.log.Append(*rec); err != nil {
		s.failures.Add(1)
		s.storeError(fmt.Errorf("failed to append %q: %w", rec.AppName, err))
		return
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	s.records.Add(1)
	s.logger.Info("focus changed", "app", rec.AppName)
}

func (s *Service) storeError(err error) {
	s.logger.Error("sampling failed", "error", err)
	if s.opts.Errors == nil {
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: s.opts.Now(),
		Source:    "tracker",
		ErrorMsg:  err.Error(),
	}
	if dbErr := s.opts.Errors.CreateErrorLog(errorLog); dbErr != nil {
		s.logger.Warn("failed to store error in database", "error", dbErr, "original_error", err)
	}
}
