package backfill

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

// Config holds the backfill command configuration.
type Config struct {
	Dir          string
	Since        time.Time // skip files modified before this time
	StatePath    string
	DryRun       bool   // parse and count only, no pipeline runs
	SlackChannel string // optional: channel for the closing summary
}

// Pipeline runs one transcript.
type Pipeline interface {
	Run(ctx context.Context, segments []processor.Segment) *processor.Result
}

// SummaryPoster posts the closing summary.
type SummaryPoster interface {
	Ready() bool
	PostMessage(ctx context.Context, channel, text string, blocks []slack.Block) (string, error)
}

// FileSummary is the outcome of one transcript file.
type FileSummary struct {
	Path           string
	Segments       int
	ScheduledEvent bool
	Tasks          int
	Failed         bool
}

// Runner feeds a directory of saved transcripts through the pipeline once
// each, remembering finished files between invocations.
type Runner struct {
	cfg      Config
	pipeline Pipeline
	poster   SummaryPoster
	logger   *slog.Logger
}

func NewRunner(cfg Config, pipeline Pipeline, poster SummaryPoster, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, pipeline: pipeline, poster: poster, logger: logger}
}

// Run processes every pending file. A file whose run fails extraction is not
// marked processed and is retried next time.
func (r *Runner) Run(ctx context.Context) ([]FileSummary, error) {
	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	files, err := r.discoverFiles()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	var pending []string
	for _, path := range files {
		if !state.IsProcessed(path) {
			pending = append(pending, path)
		}
	}
	state.FilesRemaining = len(pending)
	r.logger.Info("files to process", "total", len(files), "pending", len(pending), "dry_run", r.cfg.DryRun)

	var summaries []FileSummary
	for _, path := range pending {
		select {
		case <-ctx.Done():
			r.logger.Info("backfill interrupted, saving state")
			_ = state.Save()
			r.postSummary(ctx, summaries)
			return summaries, ctx.Err()
		default:
		}

		sum := FileSummary{Path: path}
		segs, err := ParseFile(path)
		if err != nil {
			r.logger.Warn("failed to parse transcript file", "path", path, "error", err)
			state.AddError(fmt.Sprintf("parse %s: %v", path, err))
			sum.Failed = true
			summaries = append(summaries, sum)
			continue
		}
		sum.Segments = len(segs)

		if r.cfg.DryRun {
			summaries = append(summaries, sum)
			continue
		}

		res := r.pipeline.Run(ctx, segs)
		state.Runs++
		if res.Error != "" {
			state.AddError(fmt.Sprintf("run %s: %s", path, res.Error))
			sum.Failed = true
		} else {
			sum.ScheduledEvent = res.ScheduledEvent
			sum.Tasks = len(res.AssignedTasks)
			if res.ScheduledEvent {
				state.EventsScheduled++
			}
			state.TasksAssigned += sum.Tasks
			state.MarkProcessed(path, res.RunID)
		}
		state.FilesRemaining--
		summaries = append(summaries, sum)

		if err := state.Save(); err != nil {
			r.logger.Warn("failed to save backfill state", "error", err)
		}
		r.logger.Info("file processed", "path", path, "tasks", sum.Tasks, "scheduled_event", sum.ScheduledEvent, "failed", sum.Failed)
	}

	if !r.cfg.DryRun {
		if err := state.Save(); err != nil {
			return summaries, fmt.Errorf("save state: %w", err)
		}
	}
	r.postSummary(ctx, summaries)
	return summaries, nil
}

func (r *Runner) postSummary(ctx context.Context, summaries []FileSummary) {
	if r.cfg.DryRun || r.cfg.SlackChannel == "" || r.poster == nil || !r.poster.Ready() || len(summaries) == 0 {
		return
	}
	text := FormatSummary(summaries)
	if _, err := r.poster.PostMessage(ctx, r.cfg.SlackChannel, text, nil); err != nil {
		r.logger.Warn("failed to post backfill summary", "error", err)
	}
}

// FormatSummary renders a short Slack mrkdwn report of a backfill pass.
func FormatSummary(summaries []FileSummary) string {
	var events, tasks, failed int
	for _, s := range summaries {
		if s.ScheduledEvent {
			events++
		}
		tasks += s.Tasks
		if s.Failed {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Transcript backfill* | %d files | %d events | %d tasks", len(summaries), events, tasks)
	if failed > 0 {
		fmt.Fprintf(&b, " | %d failed", failed)
	}
	for _, s := range summaries {
		if s.Failed {
			fmt.Fprintf(&b, "\n:x: %s", filepath.Base(s.Path))
		}
	}
	return b.String()
}

func (r *Runner) discoverFiles() ([]string, error) {
	if r.cfg.Dir == "" {
		return nil, fmt.Errorf("no transcript directory configured")
	}

	statePath := expandHome(r.cfg.StatePath)
	var files []string
	err := filepath.WalkDir(r.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if (ext != ".json" && ext != ".jsonl") || path == statePath {
			return nil
		}
		if !r.cfg.Since.IsZero() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.ModTime().Before(r.cfg.Since) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transcript directory %s does not exist", r.cfg.Dir)
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
