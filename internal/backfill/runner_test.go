package backfill

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

type fakePipeline struct {
	runs [][]processor.Segment
	fail map[string]bool // first segment text that should fail extraction
}

func (f *fakePipeline) Run(_ context.Context, segs []processor.Segment) *processor.Result {
	f.runs = append(f.runs, segs)
	res := &processor.Result{RunID: uuid.New(), AssignedTasks: []processor.TaskResult{}}
	if len(segs) > 0 && f.fail[segs[0].Text] {
		res.Error = "response is not a JSON object"
		return res
	}
	res.ScheduledEvent = true
	res.AssignedTasks = append(res.AssignedTasks, processor.TaskResult{Assignee: "al", Task: "x"})
	return res
}

type fakePoster struct {
	channel, text string
}

func (f *fakePoster) Ready() bool { return true }

func (f *fakePoster) PostMessage(_ context.Context, channel, text string, _ []slack.Block) (string, error) {
	f.channel, f.text = channel, text
	return "1.1", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "a.json")
	writeFile(t, jsonPath, `{"segments":[{"speaker":"A","transcript":"hello"}]}`)
	segs, err := ParseFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []processor.Segment{{Speaker: "A", Text: "hello"}}, segs)

	jsonlPath := filepath.Join(dir, "b.jsonl")
	writeFile(t, jsonlPath, "{\"text\":\"one\"}\n\nnot json\n{\"speaker\":\"B\",\"text\":\"two\"}\n")
	segs, err = ParseFile(jsonlPath)
	require.NoError(t, err)
	assert.Equal(t, []processor.Segment{{Text: "one"}, {Speaker: "B", Text: "two"}}, segs)

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRunner_ProcessesEachFileOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2024-01-01.json"), `[{"text":"standup"}]`)
	writeFile(t, filepath.Join(dir, "nested", "2024-01-02.jsonl"), `{"text":"retro"}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	statePath := filepath.Join(t.TempDir(), "state.json")

	pipe := &fakePipeline{}
	poster := &fakePoster{}
	r := NewRunner(Config{Dir: dir, StatePath: statePath, SlackChannel: "C1"}, pipe, poster, discardLogger())

	summaries, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Len(t, pipe.runs, 2)
	assert.Equal(t, "standup", pipe.runs[0][0].Text)
	assert.Equal(t, "C1", poster.channel)
	assert.Contains(t, poster.text, "2 files | 2 events | 2 tasks")

	state, err := LoadState(statePath)
	require.NoError(t, err)
	require.Len(t, state.Files, 2)
	for _, f := range state.Files {
		assert.NotEqual(t, uuid.Nil, f.RunID)
	}
	assert.Equal(t, 2, state.TasksAssigned)

	// A second pass finds nothing new.
	summaries, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Len(t, pipe.runs, 2)
}

func TestRunner_FailedRunIsRetried(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.json"), `[{"text":"garbled"}]`)
	statePath := filepath.Join(t.TempDir(), "state.json")

	pipe := &fakePipeline{fail: map[string]bool{"garbled": true}}
	r := NewRunner(Config{Dir: dir, StatePath: statePath}, pipe, nil, discardLogger())

	summaries, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Failed)

	state, err := LoadState(statePath)
	require.NoError(t, err)
	assert.Empty(t, state.Files)
	require.Len(t, state.Errors, 1)
	assert.True(t, strings.Contains(state.Errors[0], "bad.json"))

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, pipe.runs, 2, "failed file is attempted again")
}

func TestRunner_DryRunDoesNotRunPipeline(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"text":"a"},{"text":"b"}]`)
	statePath := filepath.Join(t.TempDir(), "state.json")

	pipe := &fakePipeline{}
	r := NewRunner(Config{Dir: dir, StatePath: statePath, DryRun: true}, pipe, nil, discardLogger())

	summaries, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].Segments)
	assert.Empty(t, pipe.runs)

	_, err = os.Stat(statePath)
	assert.True(t, os.IsNotExist(err), "dry run leaves no state behind")
}

func TestRunner_SinceFiltersOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.json")
	writeFile(t, oldPath, `[{"text":"old"}]`)
	writeFile(t, filepath.Join(dir, "new.json"), `[{"text":"new"}]`)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	pipe := &fakePipeline{}
	r := NewRunner(Config{
		Dir:       dir,
		StatePath: filepath.Join(t.TempDir(), "state.json"),
		Since:     time.Now().Add(-24 * time.Hour),
	}, pipe, nil, discardLogger())

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, pipe.runs, 1)
	assert.Equal(t, "new", pipe.runs[0][0].Text)
}

func TestRunner_MissingDir(t *testing.T) {
	r := NewRunner(Config{Dir: filepath.Join(t.TempDir(), "nope"), StatePath: filepath.Join(t.TempDir(), "s.json")}, &fakePipeline{}, nil, discardLogger())
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestFormatSummary(t *testing.T) {
	text := FormatSummary([]FileSummary{
		{Path: "/t/a.json", ScheduledEvent: true, Tasks: 2},
		{Path: "/t/b.json", Failed: true},
	})
	assert.Contains(t, text, "2 files | 1 events | 2 tasks | 1 failed")
	assert.Contains(t, text, ":x: b.json")
}
