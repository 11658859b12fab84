package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/taskscribe/internal/backfill"
	"github.com/MikeSquared-Agency/taskscribe/internal/config"
)

var (
	backfillDir          string
	backfillSince        string
	backfillState        string
	backfillDryRun       bool
	backfillSlackChannel string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Process a directory of saved transcripts",
	Long: `Runs every .json or .jsonl transcript under --dir through the pipeline once.
Progress is kept in a state file so an interrupted backfill resumes where it
stopped; files whose extraction failed are retried on the next pass.`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVarP(&backfillDir, "dir", "d", "", "Directory of transcript files (required)")
	backfillCmd.Flags().StringVar(&backfillSince, "since", "", "Only files modified on or after this date (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&backfillState, "state", backfill.DefaultStatePath, "Path of the resumable state file")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "List and parse files without running the pipeline")
	backfillCmd.Flags().StringVar(&backfillSlackChannel, "slack-channel", "", "Slack channel for the closing summary")
	_ = backfillCmd.MarkFlagRequired("dir")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := setupLogging(cfg.LogLevel, cfg.LogFile, os.Stderr)
	ctx := cmd.Context()

	var since time.Time
	if backfillSince != "" {
		t, err := time.ParseInLocation("2006-01-02", backfillSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		since = t
	}

	a := newApp(cfg, logger)
	if cfg.DatabaseURL != "" && !backfillDryRun {
		db, err := openStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		a.proc.WithRecorder(db)
	}

	runner := backfill.NewRunner(backfill.Config{
		Dir:          backfillDir,
		Since:        since,
		StatePath:    backfillState,
		DryRun:       backfillDryRun,
		SlackChannel: backfillSlackChannel,
	}, a.proc, a.slack, logger)

	summaries, err := runner.Run(ctx)
	for _, s := range summaries {
		status := "ok"
		if s.Failed {
			status = "failed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s segments=%d tasks=%d event=%t\n", status, s.Path, s.Segments, s.Tasks, s.ScheduledEvent)
	}
	return err
}
