package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/processor"
	"github.com/MikeSquared-Agency/taskscribe/internal/store"
)

const maxTranscriptBytes = 8 << 20

// processTranscript handles POST /api/v1/transcripts/process. Extraction
// failures are part of the pipeline result and still return 200.
func (s *Server) processTranscript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTranscriptBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	segments, err := processor.DecodeSegments(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transcript: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Pipeline.Run(r.Context(), segments))
}

type notifyRequest struct {
	RecipientName string `json:"recipient_name"`
	Task          string `json:"task"`
	DueDate       string `json:"due_date"`
}

// notifyTask handles POST /api/v1/tasks/notify. Only exact directory names
// are accepted here.
func (s *Server) notifyTask(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	name := contacts.CanonicalName(req.RecipientName)
	if name == "" || strings.TrimSpace(req.Task) == "" {
		writeError(w, http.StatusBadRequest, "recipient_name and task are required")
		return
	}

	contact, ok := s.deps.Directory.Load()[name]
	if !ok {
		writeError(w, http.StatusNotFound, "recipient "+name+" not found in contacts")
		return
	}

	d := s.deps.Notifier.Notify(r.Context(), name, contact, req.Task, req.DueDate)
	resp := map[string]any{
		"recipient":  name,
		"email":      d.Email,
		"chat":       d.Chat,
		"email_sent": d.Email.Sent(),
		"slack_sent": d.Chat.Sent(),
	}
	if !d.Any() {
		resp["error"] = "task notification was not delivered on any channel"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	res, err := s.deps.Runs.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.deps.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}
