package store

import (
	"context"
	"fmt"
	"time"
)

// Transition moves a workflow from one lifecycle state to another. The move
// must be permitted by the transition graph and the row must still hold the
// expected from status; a concurrent writer that got there first causes
// ErrInvalidTransition.
func (s *Store) Transition(ctx context.Context, id string, from, to Status) error {
	if !ValidStatus(from) || !ValidStatus(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE workflows SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("transition workflow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing row from a lost race.
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s -> %s (workflow %s is %s)", ErrInvalidTransition, from, to, id, current.Status)
}

// Fail transitions a workflow to failed from its current state and records
// the failure message. Failing a terminal workflow returns
// ErrInvalidTransition.
func (s *Store) Fail(ctx context.Context, id string, message string) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.Transition(ctx, id, current.Status, StatusFailed); err != nil {
		return err
	}
	return s.execWithoutResultRetry(
		ctx,
		`UPDATE workflows SET error_message = ?, updated_at = ? WHERE id = ?`,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
}

// SetApprovalToken stores the hash of a freshly minted approval token and
// resets the used flag.
func (s *Store) SetApprovalToken(ctx context.Context, id string, tokenHash string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE workflows SET approval_token_hash = ?, approval_token_used = 0, updated_at = ? WHERE id = ?`,
		tokenHash,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set approval token: %w", err)
	}
	return nil
}

// ConsumeApprovalToken atomically marks the approval token used. It succeeds
// only when the hash matches, the token is unused, and the workflow is still
// awaiting approval, so exactly one caller can win a redemption race. The
// boolean reports whether this caller consumed the token; callers that lose
// re-read the workflow to classify why.
func (s *Store) ConsumeApprovalToken(ctx context.Context, id string, tokenHash string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE workflows SET approval_token_used = 1, updated_at = ?
         WHERE id = ? AND approval_token_hash = ? AND approval_token_used = 0 AND status = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		tokenHash,
		StatusEmailSent,
	)
	if err != nil {
		return false, fmt.Errorf("consume approval token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// FailStale fails workflows stuck mid-pipeline whose last update predates the
// cutoff. Workflows awaiting approval are untouched; pending approvals have
// no deadline.
func (s *Store) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := make([]any, 0, len(processingStatuses)+3)
	args = append(args,
		"workflow stalled and was failed by the stale sweep",
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	for _, status := range processingStatuses {
		args = append(args, status)
	}
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))

	query := `UPDATE workflows
        SET status = '` + string(StatusFailed) + `', error_message = ?, updated_at = ?
        WHERE status IN (` + makePlaceholders(len(processingStatuses)) + `) AND updated_at < ?`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("fail stale workflows: %w", err)
	}
	return res.RowsAffected()
}
