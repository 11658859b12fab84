package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/taskscribe/internal/config"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
	"github.com/MikeSquared-Agency/taskscribe/internal/store"
)

// Pipeline runs one transcript to completion.
type Pipeline interface {
	Run(ctx context.Context, segments []processor.Segment) *processor.Result
}

// SlackVerifier checks a bot token before it is stored.
type SlackVerifier interface {
	AuthTest(ctx context.Context, token string) (*slack.Identity, error)
}

// RunReader serves recorded pipeline runs.
type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*processor.Result, error)
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
}

// Deps are the collaborators behind the HTTP surface. Runs and Capabilities
// may be nil.
type Deps struct {
	Pipeline     Pipeline
	Notifier     processor.TaskNotifier
	Directory    processor.DirectorySource
	Settings     *config.Settings
	Slack        SlackVerifier
	Runs         RunReader
	Capabilities func(ctx context.Context) map[string]bool
	Logger       *slog.Logger
}

type Server struct {
	router *chi.Mux
	port   int
	deps   Deps
	logger *slog.Logger
}

func NewServer(port int, apiToken string, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router: router,
		port:   port,
		deps:   deps,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/api/v1/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/api/v1/transcripts/process", s.processTranscript)
		r.Post("/api/v1/tasks/notify", s.notifyTask)
		r.Post("/api/v1/settings/slack-token", s.setSlackToken)
		r.Post("/api/v1/settings/contacts-csv", s.setContactsCSV)
		r.Get("/api/v1/runs", s.listRuns)
		r.Get("/api/v1/runs/{id}", s.getRun)
	})

	return s
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	caps := map[string]bool{}
	if s.deps.Capabilities != nil {
		caps = s.deps.Capabilities(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":      "taskscribe",
		"status":       "running",
		"capabilities": caps,
		"run_history":  s.deps.Runs != nil,
		"endpoints": map[string]string{
			"process_transcript": "POST /api/v1/transcripts/process",
			"notify_task":        "POST /api/v1/tasks/notify",
			"set_slack_token":    "POST /api/v1/settings/slack-token",
			"set_contacts_csv":   "POST /api/v1/settings/contacts-csv",
			"list_runs":          "GET /api/v1/runs",
			"get_run":            "GET /api/v1/runs/{id}",
			"metrics":            "GET /metrics",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
