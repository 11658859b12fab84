package extractor

import (
	"strings"
	"time"
)

// Intent is the validated form of what the model extracted from a transcript.
// Times are kept as the model wrote them; callers parse them with ParseTime
// in the zone they care about.
type Intent struct {
	SchedulingIntent bool             `json:"scheduling_intent"`
	EventTitle       string           `json:"event_title,omitempty"`
	StartTime        string           `json:"start_time,omitempty"`
	EndTime          string           `json:"end_time,omitempty"`
	Attendees        []string         `json:"attendees"`
	Location         string           `json:"location,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	TaskAssignments  []TaskAssignment `json:"task_assignments"`
}

// TaskAssignment is one "person X should do Y" extracted from the transcript.
type TaskAssignment struct {
	Assignee string `json:"assignee"`
	Task     string `json:"task"`
	DueDate  string `json:"due_date,omitempty"`
}

// Dispatchable reports whether the assignment names both a person and a task.
func (a TaskAssignment) Dispatchable() bool {
	return strings.TrimSpace(a.Assignee) != "" && strings.TrimSpace(a.Task) != ""
}

// Window parses the event start and end in loc. ok is false when either is
// missing or unparseable.
func (i *Intent) Window(loc *time.Location) (start, end time.Time, ok bool) {
	start, ok = ParseTime(i.StartTime, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok = ParseTime(i.EndTime, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts the ISO-8601 shapes models tend to emit. Timestamps
// without an offset are read as wall-clock time in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
