package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MikeSquared-Agency/taskscribe/internal/anthropic"
	"github.com/MikeSquared-Agency/taskscribe/internal/config"
	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/dispatch"
	"github.com/MikeSquared-Agency/taskscribe/internal/extractor"
	"github.com/MikeSquared-Agency/taskscribe/internal/google"
	"github.com/MikeSquared-Agency/taskscribe/internal/groq"
	"github.com/MikeSquared-Agency/taskscribe/internal/hermes"
	"github.com/MikeSquared-Agency/taskscribe/internal/llm"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

var rootCmd = &cobra.Command{
	Use:   "taskscribe",
	Short: "Turn meeting transcripts into calendar events and task notifications",
	Long: `taskscribe extracts scheduling intent and task assignments from meeting
transcripts, creates calendar events and notifies assignees by email and Slack.`,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app holds the wired pipeline shared by the serve and process commands.
type app struct {
	cfg       config.Config
	settings  *config.Settings
	creds     *google.FileCredentials
	slack     *slack.Client
	extractor *extractor.Extractor
	directory *contacts.Loader
	notifier  *dispatch.Notifier
	proc      *processor.Processor

	// set by serve when the optional backends are configured
	history bool
	events  *hermes.Client
}

func newApp(cfg config.Config, logger *slog.Logger) *app {
	settings := config.NewSettings(cfg)
	creds := google.NewFileCredentials(cfg.GoogleCredsFile, cfg.GoogleTokenFile, logger)
	slackClient := slack.NewClient(settings.SlackToken, logger)

	ext := extractor.New(newCompleter(cfg, logger), cfg.Temperature, logger)

	sched := dispatch.NewScheduler(google.NewCalendar(creds, logger), cfg.TimeZone, logger)
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	notifier := dispatch.NewNotifier(google.NewGmail(creds, logger), slackClient, loc, logger)
	dir := contacts.NewLoader(settings.ContactsCSV, logger)

	return &app{
		cfg:       cfg,
		settings:  settings,
		creds:     creds,
		slack:     slackClient,
		extractor: ext,
		directory: dir,
		notifier:  notifier,
		proc:      processor.New(ext, sched, notifier, dir, logger),
	}
}

// newCompleter picks the completion provider. It returns a nil interface
// when the chosen provider has no key, which leaves extraction degraded.
func newCompleter(cfg config.Config, logger *slog.Logger) llm.Completer {
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set, transcripts will yield no intents")
			return nil
		}
		logger.Info("completion client ready", "provider", "anthropic", "model", cfg.AnthropicModel)
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		if cfg.GroqAPIKey == "" {
			logger.Warn("GROQ_API_KEY not set, transcripts will yield no intents")
			return nil
		}
		logger.Info("completion client ready", "provider", "groq", "model", cfg.Model)
		return groq.NewClient(cfg.GroqAPIKey, cfg.Model).WithAPIURL(cfg.GroqAPIURL)
	}
}

// capabilities reports which integrations can currently be used.
func (a *app) capabilities(ctx context.Context) map[string]bool {
	_, err := os.Stat(a.settings.ContactsCSV())
	return map[string]bool{
		"google":             google.Available(ctx, a.creds),
		"slack":              a.slack.Ready(),
		"completion_service": a.extractor.Enabled(),
		"contacts_file":      err == nil,
		"run_history":        a.history,
		"events":             a.events != nil && a.events.Connected(),
	}
}

func setupLogging(level, file string, out io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	if file != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		})
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
