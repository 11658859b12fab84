//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/dispatch"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_EnsureSchemaIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
}

func TestIntegration_RecordAndGetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	res := &processor.Result{
		RunID:          uuid.New(),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		ScheduledEvent: true,
		AssignedTasks: []processor.TaskResult{
			{
				Assignee:     "al",
				Task:         "ship report",
				DueDate:      "2024-01-05",
				ResolvedName: "alice",
				Resolution:   contacts.StatusResolved,
				Email:        dispatch.Sent,
				Chat:         dispatch.Failed,
				EmailSent:    true,
			},
			{
				Assignee:   "ali",
				Task:       "review doc",
				Resolution: contacts.StatusAmbiguous,
				Candidates: []string{"alice", "alicia"},
				Email:      dispatch.NotAttempted,
				Chat:       dispatch.NotAttempted,
			},
		},
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM pipeline_runs WHERE id = $1", res.RunID)
	})

	if err := s.RecordRun(ctx, res, 42); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if !got.ScheduledEvent {
		t.Error("expected scheduled_event true")
	}
	if !got.CreatedAt.Equal(res.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", res.CreatedAt, got.CreatedAt)
	}
	if len(got.AssignedTasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got.AssignedTasks))
	}

	first := got.AssignedTasks[0]
	if first.ResolvedName != "alice" || first.Email != dispatch.Sent || first.Chat != dispatch.Failed {
		t.Errorf("unexpected first task: %+v", first)
	}
	if !first.EmailSent || first.SlackSent {
		t.Errorf("expected email_sent only, got %+v", first)
	}
	if first.Candidates != nil {
		t.Errorf("expected no candidates, got %v", first.Candidates)
	}

	second := got.AssignedTasks[1]
	if second.Resolution != contacts.StatusAmbiguous {
		t.Errorf("expected ambiguous, got %q", second.Resolution)
	}
	if len(second.Candidates) != 2 || second.Candidates[0] != "alice" {
		t.Errorf("unexpected candidates %v", second.Candidates)
	}

	runs, err := s.ListRuns(ctx, 100)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	found := false
	for _, r := range runs {
		if r.RunID == res.RunID {
			found = true
			if r.Tasks != 2 {
				t.Errorf("expected 2 tasks in summary, got %d", r.Tasks)
			}
		}
	}
	if !found {
		t.Error("recorded run missing from ListRuns")
	}
}

func TestIntegration_RecordFailedRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	res := &processor.Result{
		RunID:         uuid.New(),
		CreatedAt:     time.Now().UTC(),
		AssignedTasks: []processor.TaskResult{},
		Error:         "intent extraction: response is not a JSON object",
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM pipeline_runs WHERE id = $1", res.RunID)
	})

	if err := s.RecordRun(ctx, res, 10); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	got, err := s.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Error != res.Error {
		t.Errorf("expected error %q, got %q", res.Error, got.Error)
	}
	if got.AssignedTasks == nil || len(got.AssignedTasks) != 0 {
		t.Errorf("expected empty task list, got %v", got.AssignedTasks)
	}
}

func TestIntegration_GetRunNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
