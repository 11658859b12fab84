package contacts

import (
	"log/slog"
	"sort"
	"strings"
)

// Status is the outcome of resolving a free-text name.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusNotFound  Status = "not_found"
	// StatusInvalid marks an assignment that lacked a name or a task and
	// was never looked up.
	StatusInvalid Status = "invalid"
)

// Resolution is the tagged result of Resolve. Name and Contact are set only
// when Status is StatusResolved; Candidates only when it is StatusAmbiguous.
type Resolution struct {
	Status     Status
	Name       string
	Contact    Contact
	Candidates []string
}

func (r Resolution) Resolved() bool { return r.Status == StatusResolved }

// Resolve matches a partial or nicknamed name against the directory.
//
// An exact key wins outright. Otherwise every key that contains the input or
// starts with it is a candidate; exactly one candidate resolves, zero or
// several do not.
func (d Directory) Resolve(partial string, logger *slog.Logger) Resolution {
	name := CanonicalName(partial)
	if name == "" {
		return Resolution{Status: StatusNotFound}
	}

	if c, ok := d[name]; ok {
		return Resolution{Status: StatusResolved, Name: name, Contact: c}
	}

	var matches []string
	for key := range d {
		if strings.Contains(key, name) || strings.HasPrefix(key, name) {
			matches = append(matches, key)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		logger.Info("no contact match", "name", name)
		return Resolution{Status: StatusNotFound}
	case 1:
		return Resolution{Status: StatusResolved, Name: matches[0], Contact: d[matches[0]]}
	default:
		logger.Warn("ambiguous contact match", "name", name, "candidates", matches)
		return Resolution{Status: StatusAmbiguous, Candidates: matches}
	}
}
