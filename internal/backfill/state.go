package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultStatePath = "~/.taskscribe/backfill-state.json"

// ProcessedFile links a transcript file to the pipeline run that handled it.
type ProcessedFile struct {
	RunID       uuid.UUID `json:"run_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// State tracks progress for resumable backfill runs.
type State struct {
	StartedAt       time.Time                `json:"started_at"`
	LastSavedAt     time.Time                `json:"last_saved_at"`
	Files           map[string]ProcessedFile `json:"files"`
	FilesRemaining  int                      `json:"files_remaining"`
	Runs            int                      `json:"runs"`
	EventsScheduled int                      `json:"events_scheduled"`
	TasksAssigned   int                      `json:"tasks_assigned"`
	Errors          []string                 `json:"errors"`

	path string
}

// LoadState reads the state at path. A missing file starts a fresh state
// that will be written there on Save.
func LoadState(path string) (*State, error) {
	if path == "" {
		path = DefaultStatePath
	}
	resolved := expandHome(path)

	data, err := os.ReadFile(resolved)
	if os.IsNotExist(err) {
		return &State{
			StartedAt: time.Now().UTC(),
			Files:     map[string]ProcessedFile{},
			path:      resolved,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", resolved, err)
	}

	s := &State{path: resolved}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", resolved, err)
	}
	if s.Files == nil {
		s.Files = map[string]ProcessedFile{}
	}
	return s, nil
}

// Save writes the state as indented JSON, creating parent directories.
func (s *State) Save() error {
	s.LastSavedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *State) IsProcessed(path string) bool {
	_, ok := s.Files[path]
	return ok
}

// MarkProcessed records that runID handled the file at path.
func (s *State) MarkProcessed(path string, runID uuid.UUID) {
	if s.Files == nil {
		s.Files = map[string]ProcessedFile{}
	}
	s.Files[path] = ProcessedFile{RunID: runID, ProcessedAt: time.Now().UTC()}
}

func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
