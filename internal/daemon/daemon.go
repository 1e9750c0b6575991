// Package daemon runs scheduled sync passes.
//
// The daemon:
// 1. Runs one scheduled sync as soon as it starts
// 2. Runs another every Interval
// 3. Picks up interval and state changes without restarting
// 4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mschirtzinger/issuesync/internal/github"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

// Runner performs one sync pass. *sync.Orchestrator satisfies it.
type Runner interface {
	SyncAssigned(ctx context.Context, mode issuesync.Mode, opts github.ListOptions) *issuesync.SyncResult
}

// Config holds configuration for the daemon.
type Config struct {
	// Interval is the time between scheduled passes
	Interval time.Duration

	// State selects which issues each pass fetches: open, closed or all
	State string

	// Logger for daemon activity
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval: 15 * time.Minute,
		State:    "open",
		Logger:   slog.Default(),
	}
}

// Daemon triggers scheduled sync passes.
type Daemon struct {
	runner Runner
	config *Config
	logger *slog.Logger

	state  atomic.Value // string
	resets chan time.Duration
	runs   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a daemon with the default configuration.
func New(runner Runner) (*Daemon, error) {
	return NewWithConfig(runner, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(runner Runner, config *Config) (*Daemon, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", config.Interval)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		runner: runner,
		config: config,
		logger: logger.With("component", "daemon"),
		resets: make(chan time.Duration, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	d.state.Store(github.NormalizeState(config.State))
	return d, nil
}

// Start runs a pass immediately and then every Interval.
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Info("starting daemon", "interval", d.config.Interval, "state", d.State())

	d.wg.Add(1)
	go d.loop()

	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop cancels any running pass and waits for the loop to exit.
func (d *Daemon) Stop() error {
	d.once.Do(func() {
		d.logger.Info("stopping daemon")
		d.cancel()
		d.wg.Wait()
		d.logger.Info("daemon stopped", "runs", d.Runs())
	})
	return nil
}

// RunOnce performs a single scheduled pass.
func (d *Daemon) RunOnce(ctx context.Context) *issuesync.SyncResult {
	result := d.runner.SyncAssigned(ctx, issuesync.ModeScheduled, github.ListOptions{State: d.State()})
	d.runs.Add(1)

	attrs := []any{"status", result.Status, "processed", result.Processed, "synced", result.Synced, "errors", result.ErrorsCount}
	if result.Status == issuesync.StatusCompleted {
		d.logger.Info("scheduled sync finished", attrs...)
	} else {
		d.logger.Warn("scheduled sync finished", attrs...)
	}
	return result
}

// Runs returns how many passes the daemon has performed.
func (d *Daemon) Runs() int64 {
	return d.runs.Load()
}

// State returns the issue state each pass fetches.
func (d *Daemon) State() string {
	return d.state.Load().(string)
}

// SetState changes the issue state for subsequent passes.
func (d *Daemon) SetState(state string) {
	d.state.Store(github.NormalizeState(state))
}

// SetInterval changes the time between passes. Non-positive values are
// ignored.
func (d *Daemon) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	// Replace any reset the loop has not consumed yet
	select {
	case <-d.resets:
	default:
	}
	d.resets <- interval
}

func (d *Daemon) loop() {
	defer d.wg.Done()

	d.RunOnce(d.ctx)

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case interval := <-d.resets:
			d.logger.Info("sync interval changed", "interval", interval)
			ticker.Reset(interval)

		case <-ticker.C:
			d.RunOnce(d.ctx)
		}
	}
}
