package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/taskscribe/internal/api"
	"github.com/MikeSquared-Agency/taskscribe/internal/config"
	"github.com/MikeSquared-Agency/taskscribe/internal/hermes"
	"github.com/MikeSquared-Agency/taskscribe/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the NATS transcript consumer",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default TASKSCRIBE_PORT or 8760)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if servePort > 0 {
		cfg.Port = servePort
	}
	logger := setupLogging(cfg.LogLevel, cfg.LogFile, os.Stdout)
	logger.Info("taskscribe starting", "port", cfg.Port)

	ctx := cmd.Context()

	a := newApp(cfg, logger)

	deps := api.Deps{
		Pipeline:     a.proc,
		Notifier:     a.notifier,
		Directory:    a.directory,
		Settings:     a.settings,
		Slack:        a.slack,
		Capabilities: a.capabilities,
		Logger:       logger,
	}

	// Database (optional, enables run history)
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		db, err := openStore(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Error("failed to set up database", "error", err)
			return err
		}
		defer db.Close()
		a.proc.WithRecorder(db)
		a.history = true
		deps.Runs = db
		logger.Info("database connected")
	} else {
		logger.Warn("DATABASE_URL not set, running without run history")
	}

	// NATS/Hermes (optional, enables event-driven runs)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			return err
		}
		defer hermesClient.Close()
		a.proc.WithPublisher(hermesClient)
		a.events = hermesClient

		if err := hermesClient.Subscribe(hermes.SubjectTranscriptReady, "taskscribe", a.proc.HandleTranscriptReady); err != nil {
			logger.Error("failed to subscribe to transcript events", "error", err)
			return err
		}
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, transcripts accepted over HTTP only")
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, deps)
	logger.Info("taskscribe ready", "port", cfg.Port, "capabilities", a.capabilities(ctx))

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server error", "error", err)
		return err
	}
	logger.Info("taskscribe stopped")
	return nil
}

// openStore connects and ensures the schema. The pool is closed again when
// the schema cannot be created.
func openStore(ctx context.Context, databaseURL string) (*store.Store, error) {
	db, err := store.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
