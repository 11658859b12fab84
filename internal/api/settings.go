package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
)

type slackTokenRequest struct {
	SlackToken string `json:"slack_token"`
}

// setSlackToken handles POST /api/v1/settings/slack-token. The token is
// verified with Slack before it replaces the current one.
func (s *Server) setSlackToken(w http.ResponseWriter, r *http.Request) {
	var req slackTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	token := strings.TrimSpace(req.SlackToken)
	if token == "" {
		writeError(w, http.StatusBadRequest, "slack_token is required")
		return
	}

	ident, err := s.deps.Slack.AuthTest(r.Context(), token)
	if err != nil {
		s.logger.Warn("slack token rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid slack token: "+err.Error())
		return
	}

	if err := s.deps.Settings.SetSlackToken(token); err != nil {
		s.logger.Error("failed to persist slack token", "error", err)
		writeError(w, http.StatusInternalServerError, "token verified but could not be saved")
		return
	}

	s.logger.Info("slack token updated", "team", ident.Team, "bot_user", ident.User)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "slack token updated",
		"team":        ident.Team,
		"team_id":     ident.TeamID,
		"bot_user":    ident.User,
		"bot_user_id": ident.UserID,
	})
}

type contactsCSVRequest struct {
	CSVPath string `json:"csv_path"`
}

// setContactsCSV handles POST /api/v1/settings/contacts-csv.
func (s *Server) setContactsCSV(w http.ResponseWriter, r *http.Request) {
	var req contactsCSVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	path := strings.TrimSpace(req.CSVPath)
	if path == "" {
		writeError(w, http.StatusBadRequest, "csv_path is required")
		return
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "contacts file not found: "+path)
		return
	}

	dir, err := contacts.LoadFile(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contacts file: "+err.Error())
		return
	}

	if err := s.deps.Settings.SetContactsCSV(path); err != nil {
		s.logger.Error("failed to persist contacts path", "error", err)
		writeError(w, http.StatusInternalServerError, "contacts path could not be saved")
		return
	}

	s.logger.Info("contacts source updated", "path", path, "count", len(dir))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "contacts file updated",
		"csv_path":       path,
		"contacts_count": len(dir),
	})
}
