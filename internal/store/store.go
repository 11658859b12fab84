package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a run id has no stored record.
var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id               uuid PRIMARY KEY,
	created_at       timestamptz NOT NULL DEFAULT now(),
	transcript_chars integer NOT NULL DEFAULT 0,
	scheduled_event  boolean NOT NULL DEFAULT false,
	error            text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS task_dispatches (
	run_id        uuid NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	position      integer NOT NULL,
	assignee      text NOT NULL,
	task          text NOT NULL,
	due_date      text NOT NULL DEFAULT '',
	resolved_name text NOT NULL DEFAULT '',
	resolution    text NOT NULL,
	candidates    text[] NOT NULL DEFAULT '{}',
	email_outcome text NOT NULL,
	chat_outcome  text NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS pipeline_runs_created_at_idx ON pipeline_runs (created_at DESC);
`

// EnsureSchema creates the run history tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
