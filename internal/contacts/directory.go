// Package contacts loads the name-to-contact directory and resolves the
// free-text assignee names that the extractor produces against it.
package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrMissingColumns is returned when the CSV header lacks name or email.
var ErrMissingColumns = errors.New("contacts csv must have 'name' and 'email' columns")

// Contact is one directory entry. Email and ChatHandle may be empty.
type Contact struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	ChatHandle string `json:"slack_id,omitempty"`
}

// Directory maps canonical (lower-cased, trimmed) names to contacts.
type Directory map[string]Contact

// CanonicalName is the directory key form of a person's name.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Parse reads a contacts CSV. The header row must contain name and email;
// slack_id (or chat_handle) is optional. Rows without a name are skipped.
func Parse(r io.Reader) (Directory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingColumns
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	nameCol, emailCol, chatCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "name":
			nameCol = i
		case "email":
			emailCol = i
		case "slack_id", "chat_handle":
			chatCol = i
		}
	}
	if nameCol < 0 || emailCol < 0 {
		return nil, ErrMissingColumns
	}

	dir := Directory{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		key := CanonicalName(field(rec, nameCol))
		if key == "" {
			continue
		}
		dir[key] = Contact{
			Name:       key,
			Email:      field(rec, emailCol),
			ChatHandle: field(rec, chatCol),
		}
	}
	return dir, nil
}

func field(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}

// LoadFile parses the CSV at path.
func LoadFile(path string) (Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Loader rebuilds the directory from its current source path on every call.
type Loader struct {
	path   func() string
	logger *slog.Logger
}

// NewLoader returns a loader that asks path for the source location each time,
// so an administrative path change takes effect on the next run.
func NewLoader(path func() string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Load never fails: a missing or malformed source yields an empty directory
// and the reason is logged.
func (l *Loader) Load() Directory {
	path := l.path()
	dir, err := LoadFile(path)
	if err != nil {
		l.logger.Warn("failed to load contacts", "path", path, "error", err)
		return Directory{}
	}
	l.logger.Info("contacts loaded", "path", path, "count", len(dir))
	return dir
}
