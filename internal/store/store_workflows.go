package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const workflowColumns = "id, status, trigger_type, topic_title, topic_category, article_title, topic_json, research_json, article_json, score_json, stage_results_json, article_text, error_message, published_id, approval_token_hash, approval_token_used, created_at, updated_at"

// Create inserts a new workflow in the initialized state.
func (s *Store) Create(ctx context.Context, trigger Trigger) (*Workflow, error) {
	if trigger == "" {
		trigger = TriggerManual
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := "wf-" + uuid.NewString()

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO workflows (id, status, trigger_type, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id,
		StatusInitialized,
		string(trigger),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a workflow by identifier. Returns nil without error when
// the workflow does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id)
	wf, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return wf, nil
}

// Update persists payload changes to an existing workflow. Status is
// deliberately excluded; lifecycle changes go through Transition.
func (s *Store) Update(ctx context.Context, wf *Workflow) error {
	if wf == nil {
		return errors.New("workflow is nil")
	}
	wf.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE workflows
         SET topic_title = ?, topic_category = ?, article_title = ?,
             topic_json = ?, research_json = ?, article_json = ?, score_json = ?,
             stage_results_json = ?, article_text = ?, error_message = ?,
             published_id = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(wf.TopicTitle),
		nullableString(wf.TopicCategory),
		nullableString(wf.ArticleTitle),
		nullableString(wf.TopicJSON),
		nullableString(wf.ResearchJSON),
		nullableString(wf.ArticleJSON),
		nullableString(wf.ScoreJSON),
		nullableString(wf.StageResultsJSON),
		nullableString(wf.ArticleText),
		nullableString(wf.ErrorMessage),
		nullableString(wf.PublishedID),
		wf.UpdatedAt.Format(time.RFC3339Nano),
		wf.ID,
	); err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return nil
}

// List returns workflows filtered by status set (or all workflows when no
// status is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Workflow, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + workflowColumns + ` FROM workflows`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// RecentPublished returns the most recently published workflows, newest
// first. These feed the writer's repetition-avoidance context and the
// uniqueness corpus for content checks.
func (s *Store) RecentPublished(ctx context.Context, limit int) ([]*Workflow, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE status = ? ORDER BY updated_at DESC LIMIT ?`,
		StatusPublished,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent published: %w", err)
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// UsedTopicTitles returns topic titles already consumed by runs that reached
// the approval email or were published, so topic discovery can exclude them.
func (s *Store) UsedTopicTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT topic_title FROM workflows
         WHERE status IN (?, ?) AND topic_title IS NOT NULL AND topic_title != ''`,
		StatusEmailSent,
		StatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("used topic titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// CountByStatus returns workflow counts per lifecycle state.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM workflows GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*Workflow, error) {
	var (
		id            string
		statusStr     string
		triggerType   sql.NullString
		topicTitle    sql.NullString
		topicCategory sql.NullString
		articleTitle  sql.NullString
		topicJSON     sql.NullString
		researchJSON  sql.NullString
		articleJSON   sql.NullString
		scoreJSON     sql.NullString
		stageResults  sql.NullString
		articleText   sql.NullString
		errorMessage  sql.NullString
		publishedID   sql.NullString
		tokenHash     sql.NullString
		tokenUsed     sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&triggerType,
		&topicTitle,
		&topicCategory,
		&articleTitle,
		&topicJSON,
		&researchJSON,
		&articleJSON,
		&scoreJSON,
		&stageResults,
		&articleText,
		&errorMessage,
		&publishedID,
		&tokenHash,
		&tokenUsed,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	wf := &Workflow{
		ID:                id,
		Status:            Status(statusStr),
		TriggerType:       Trigger(triggerType.String),
		TopicTitle:        topicTitle.String,
		TopicCategory:     topicCategory.String,
		ArticleTitle:      articleTitle.String,
		TopicJSON:         topicJSON.String,
		ResearchJSON:      researchJSON.String,
		ArticleJSON:       articleJSON.String,
		ScoreJSON:         scoreJSON.String,
		StageResultsJSON:  stageResults.String,
		ArticleText:       articleText.String,
		ErrorMessage:      errorMessage.String,
		PublishedID:       publishedID.String,
		ApprovalTokenHash: tokenHash.String,
		ApprovalTokenUsed: tokenUsed.Valid && tokenUsed.Int64 != 0,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		wf.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		wf.UpdatedAt = updated
	}
	return wf, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
