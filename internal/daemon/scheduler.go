package daemon

import (
	"context"
	"time"

	"inkwell/internal/logging"
	"inkwell/internal/store"
)

const minSweepInterval = time.Minute

// runScheduler launches a daily-triggered content run on the configured
// interval. An interval of zero disables scheduling; manual and API triggers
// still work.
func (d *Daemon) runScheduler(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.RunIntervalHours) * time.Hour
	if interval <= 0 {
		d.logger.Info("scheduler disabled, run interval not configured")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	d.logger.Info("scheduler started", logging.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := d.runner.Run(ctx, store.TriggerDaily)
			if err != nil {
				d.logger.Error("scheduled run failed",
					logging.String(logging.FieldWorkflowID, result.WorkflowID),
					logging.Error(err))
				continue
			}
			d.logger.Info("scheduled run finished",
				logging.String(logging.FieldWorkflowID, result.WorkflowID),
				logging.String("status", string(result.Status)))
		}
	}
}

// runStaleSweeper periodically fails workflows stuck mid-pipeline longer than
// the configured stale timeout. Workflows awaiting approval are left alone;
// editors review on their own schedule.
func (d *Daemon) runStaleSweeper(ctx context.Context) {
	defer d.wg.Done()

	timeout := time.Duration(d.cfg.Workflow.StaleTimeoutMinutes) * time.Minute
	if timeout <= 0 {
		d.logger.Info("stale sweeper disabled, timeout not configured")
		return
	}

	sweepInterval := timeout / 4
	if sweepInterval < minSweepInterval {
		sweepInterval = minSweepInterval
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-timeout)
			swept, err := d.store.FailStale(ctx, cutoff)
			if err != nil {
				d.logger.Error("stale sweep failed", logging.Error(err))
				continue
			}
			if swept > 0 {
				d.logger.Warn("stale workflows failed",
					logging.Int64("count", swept),
					logging.Duration("stale_after", timeout))
			}
		}
	}
}
