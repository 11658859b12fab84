package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/dispatch"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
)

// RecordRun writes a finished run and its task dispatches in one transaction.
func (s *Store) RecordRun(ctx context.Context, res *processor.Result, transcriptChars int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pipeline_runs (id, created_at, transcript_chars, scheduled_event, error)
		VALUES ($1, $2, $3, $4, $5)`,
		res.RunID, res.CreatedAt, transcriptChars, res.ScheduledEvent, res.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, t := range res.AssignedTasks {
		candidates := t.Candidates
		if candidates == nil {
			candidates = []string{}
		}
		batch.Queue(`
			INSERT INTO task_dispatches (run_id, position, assignee, task, due_date, resolved_name, resolution, candidates, email_outcome, chat_outcome)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			res.RunID, i, t.Assignee, t.Task, t.DueDate, t.ResolvedName,
			string(t.Resolution), candidates, string(t.Email), string(t.Chat),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert task dispatches: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun fetches a recorded run with its dispatches in original order.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*processor.Result, error) {
	res := &processor.Result{RunID: id, AssignedTasks: []processor.TaskResult{}}
	err := s.pool.QueryRow(ctx, `
		SELECT created_at, scheduled_event, error
		FROM pipeline_runs WHERE id = $1`, id,
	).Scan(&res.CreatedAt, &res.ScheduledEvent, &res.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT assignee, task, due_date, resolved_name, resolution, candidates, email_outcome, chat_outcome
		FROM task_dispatches WHERE run_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query task dispatches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t                       processor.TaskResult
			resolution, email, chat string
		)
		if err := rows.Scan(&t.Assignee, &t.Task, &t.DueDate, &t.ResolvedName, &resolution, &t.Candidates, &email, &chat); err != nil {
			return nil, fmt.Errorf("scan task dispatch: %w", err)
		}
		if len(t.Candidates) == 0 {
			t.Candidates = nil
		}
		t.Resolution = contacts.Status(resolution)
		t.Email, t.Chat = dispatch.Outcome(email), dispatch.Outcome(chat)
		t.EmailSent, t.SlackSent = t.Email.Sent(), t.Chat.Sent()
		res.AssignedTasks = append(res.AssignedTasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read task dispatches: %w", err)
	}
	return res, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID          uuid.UUID `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	ScheduledEvent bool      `json:"scheduled_event"`
	Tasks          int       `json:"tasks"`
	Error          string    `json:"error,omitempty"`
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listLimit applies the default to non-positive limits and caps the rest.
func listLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	limit = listLimit(limit)
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.created_at, r.scheduled_event, r.error,
		       (SELECT count(*) FROM task_dispatches d WHERE d.run_id = r.id)
		FROM pipeline_runs r
		ORDER BY r.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.ScheduledEvent, &r.Error, &r.Tasks); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
