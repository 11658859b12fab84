package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/taskscribe/internal/config"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
)

var processCmd = &cobra.Command{
	Use:   "process [segments.json]",
	Short: "Run the pipeline once on a transcript file or stdin",
	Long: `Reads transcript segments (a JSON array, or an object with a "segments"
array) from the given file, or from stdin when no file or "-" is given, runs
the pipeline and prints the result as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := setupLogging(cfg.LogLevel, cfg.LogFile, os.Stderr)

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	segments, err := processor.DecodeSegments(data)
	if err != nil {
		return err
	}

	res := newApp(cfg, logger).proc.Run(cmd.Context(), segments)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Error != "" {
		return fmt.Errorf("pipeline failed: %s", res.Error)
	}
	return nil
}
