package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"inkwell/internal/approval"
	"inkwell/internal/config"
	"inkwell/internal/logging"
	"inkwell/internal/notifications"
	"inkwell/internal/store"
	"inkwell/internal/workflow"
)

// WorkflowRunner launches content runs. Satisfied by workflow.Manager.
type WorkflowRunner interface {
	Run(ctx context.Context, trigger store.Trigger) (workflow.RunResult, error)
}

// TokenRedeemer consumes approval tokens. Satisfied by approval.Gate.
type TokenRedeemer interface {
	Redeem(ctx context.Context, workflowID, token, action string) (approval.Result, error)
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	runner   WorkflowRunner
	gate     TokenRedeemer
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool                 `json:"running"`
	DatabasePath     string               `json:"database_path"`
	LockFilePath     string               `json:"lock_file_path"`
	WorkflowCounts   map[store.Status]int `json:"workflow_counts"`
	PendingApprovals int                  `json:"pending_approvals"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, runner WorkflowRunner, gate TokenRedeemer, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || runner == nil || gate == nil {
		return nil, errors.New("daemon requires config, store, runner, and gate")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.DataDir, "inkwelld.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		runner:   runner,
		gate:     gate,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the scheduler, the stale
// sweeper, and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another inkwell daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			d.cancel = nil
			return err
		}
	}

	d.wg.Add(2)
	go d.runScheduler(runCtx)
	go d.runStaleSweeper(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.cfg.DatabasePath()))
	return nil
}

// Stop terminates background processing and releases the daemon lock. The
// API server drains first so no new runs can be accepted while the wait
// group is being awaited.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RunAsync launches a content run in the background and logs its outcome.
func (d *Daemon) RunAsync(trigger store.Trigger) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		result, err := d.runner.Run(context.Background(), trigger)
		if err != nil {
			d.logger.Error("content run failed",
				logging.String(logging.FieldWorkflowID, result.WorkflowID),
				logging.String("trigger", string(trigger)),
				logging.Error(err))
			return
		}
		d.logger.Info("content run finished",
			logging.String(logging.FieldWorkflowID, result.WorkflowID),
			logging.String("status", string(result.Status)),
			logging.String("decision", string(result.Decision)))
	}()
}

// TestNotification sends a test email with the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if !d.cfg.MailEnabled() {
		return false, "mail delivery not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	counts, err := d.store.CountByStatus(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count workflows: %w", err)
	}
	return Status{
		Running:          d.running.Load(),
		DatabasePath:     d.cfg.DatabasePath(),
		LockFilePath:     d.lockPath,
		WorkflowCounts:   counts,
		PendingApprovals: counts[store.StatusEmailSent],
	}, nil
}
