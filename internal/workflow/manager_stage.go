package workflow

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/logging"
	"inkwell/internal/services"
	"inkwell/internal/store"
)

// runStage transitions the workflow into the stage's status, records the
// running stage result, executes fn, then records completion or failure. On
// failure the overall workflow is failed and fn's error is returned.
func (m *Manager) runStage(
	ctx context.Context,
	logger *slog.Logger,
	wf *store.Workflow,
	stage string,
	from, to store.Status,
	fn func(ctx context.Context) error,
) error {
	ctx = services.WithStage(ctx, stage)
	stageLogger := logger.With(logging.String(logging.FieldStage, stage))

	if err := m.store.Transition(ctx, wf.ID, from, to); err != nil {
		stageLogger.Error("stage transition rejected", logging.Error(err))
		m.failWorkflow(ctx, stageLogger, wf, err)
		return err
	}
	wf.Status = to

	started := time.Now().UTC()
	if err := wf.SetStageResult(stage, store.StageResult{
		Status:    store.StageRunning,
		StartedAt: started,
	}); err != nil {
		m.failWorkflow(ctx, stageLogger, wf, err)
		return err
	}
	if err := m.store.Update(ctx, wf); err != nil {
		stageLogger.Error("failed to persist stage start", logging.Error(err))
		m.failWorkflow(ctx, stageLogger, wf, err)
		return err
	}
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"))

	stageErr := fn(ctx)
	completed := time.Now().UTC()
	result := store.StageResult{
		StartedAt:   started,
		CompletedAt: &completed,
		DurationMS:  completed.Sub(started).Milliseconds(),
	}

	if stageErr != nil {
		result.Status = store.StageFailed
		result.Error = stageErr.Error()
		if err := wf.SetStageResult(stage, result); err == nil {
			if err := m.store.Update(ctx, wf); err != nil {
				stageLogger.Error("failed to persist stage failure", logging.Error(err))
			}
		}
		m.failWorkflow(ctx, stageLogger, wf, stageErr)
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.Duration("stage_duration", completed.Sub(started)),
			logging.Error(stageErr))
		return stageErr
	}

	result.Status = store.StageCompleted
	if err := wf.SetStageResult(stage, result); err != nil {
		m.failWorkflow(ctx, stageLogger, wf, err)
		return err
	}
	if err := m.store.Update(ctx, wf); err != nil {
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		m.failWorkflow(ctx, stageLogger, wf, err)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", completed.Sub(started)))
	return nil
}
