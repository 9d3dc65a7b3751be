package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"subtrans/internal/config"
	"subtrans/internal/logging"
	"subtrans/internal/stats"
	"subtrans/internal/translate"
)

// Daemon coordinates the HTTP translation service and enforces
// single-instance execution with a file lock.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *stats.Store
	capability translate.Capability
	gate       *translate.Gate
	backoff    translate.Backoff

	lockPath string
	lock     *flock.Flock

	server *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	Bind            string
	StatsDBPath     string
	LockFilePath    string
	TargetLanguages []string
}

// New constructs a daemon with initialized dependencies. The capability is
// shared by every request; the gate bounds concurrent upstream calls across
// all of them.
func New(cfg *config.Config, store *stats.Store, capability translate.Capability, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || capability == nil {
		return nil, errors.New("daemon requires config, stats store, and capability")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "subtransd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		capability: capability,
		gate:       translate.NewGate(cfg.Translation.ConcurrencyLimit),
		backoff:    backoffFromConfig(cfg),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

func backoffFromConfig(cfg *config.Config) translate.Backoff {
	backoff := translate.DefaultBackoff()
	if cfg.Translation.RetryMaxAttempts > 0 {
		backoff.MaxAttempts = cfg.Translation.RetryMaxAttempts
	}
	return backoff
}

// NewPipeline builds a request pipeline sharing the daemon's gate and
// capability.
func (d *Daemon) NewPipeline(logger *slog.Logger) *translate.Pipeline {
	cfg := translate.PipelineConfig{
		ChunkSize:        d.cfg.Translation.ChunkMaxBlocks,
		Limits:           subtitleLimits(d.cfg),
		TargetLanguages:  d.cfg.Translation.TargetLanguages,
		FailureThreshold: d.cfg.Translation.FailureThreshold,
	}
	return translate.NewPipeline(cfg, d.capability, d.gate, d.backoff, logger)
}

// Start acquires the daemon lock and launches the HTTP server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subtrans daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.server.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("subtrans daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the HTTP server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("subtrans daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns runtime information about the daemon.
func (d *Daemon) Status() Status {
	return Status{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		Bind:            d.cfg.Server.Bind,
		StatsDBPath:     d.store.Path(),
		LockFilePath:    d.lockPath,
		TargetLanguages: d.cfg.Translation.TargetLanguages,
	}
}

// Addr returns the listening address once Start succeeded.
func (d *Daemon) Addr() string {
	if d.server == nil {
		return ""
	}
	return d.server.addr()
}
