package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/taskscribe/internal/llm"
)

// ExtractionError means no usable intent could be obtained; it aborts a run.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type Extractor struct {
	completer   llm.Completer
	temperature float64
	logger      *slog.Logger
	now         func() time.Time
}

// New returns an extractor. A nil completer puts it in degraded mode where
// every transcript yields an empty intent.
func New(completer llm.Completer, temperature float64, logger *slog.Logger) *Extractor {
	return &Extractor{
		completer:   completer,
		temperature: temperature,
		logger:      logger,
		now:         time.Now,
	}
}

// Enabled reports whether a completion service is configured.
func (e *Extractor) Enabled() bool { return e.completer != nil }

// Extract asks the model for the scheduling intent and task assignments in transcript.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Intent, error) {
	if e.completer == nil {
		e.logger.Warn("completion service not configured, skipping extraction")
		return &Intent{}, nil
	}

	prompt := fmt.Sprintf(intentPrompt, e.now().Format("2006-01-02 (Monday)"), transcript)

	e.logger.Info("extracting intents from transcript", "transcript_len", len(transcript))

	raw, err := e.completer.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: e.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, &ExtractionError{Reason: "completion failed", Err: err}
	}

	intent, err := parseIntent(raw)
	if err != nil {
		e.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, err
	}

	e.logger.Info("extraction complete",
		"scheduling_intent", intent.SchedulingIntent,
		"task_assignments", len(intent.TaskAssignments),
	)
	return intent, nil
}

// parseIntent treats the model output as untrusted: every field is decoded on
// its own and falls back to its zero value when it has the wrong shape. Only
// a body that is not a JSON object, or one missing scheduling_intent or
// task_assignments, is rejected.
func parseIntent(raw string) (*Intent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return nil, &ExtractionError{Reason: "response is not a JSON object", Err: err}
	}
	for _, key := range []string{"scheduling_intent", "task_assignments"} {
		if _, ok := fields[key]; !ok {
			return nil, &ExtractionError{Reason: "response missing required field " + key}
		}
	}

	intent := &Intent{
		SchedulingIntent: decodeBool(fields["scheduling_intent"]),
		EventTitle:       decodeString(fields["event_title"]),
		StartTime:        decodeString(fields["start_time"]),
		EndTime:          decodeString(fields["end_time"]),
		Attendees:        decodeAttendees(fields["attendees"]),
		Location:         decodeString(fields["location"]),
		Notes:            decodeString(fields["notes"]),
	}

	var items []json.RawMessage
	if json.Unmarshal(fields["task_assignments"], &items) == nil {
		for _, item := range items {
			var a map[string]json.RawMessage
			if json.Unmarshal(item, &a) != nil || a == nil {
				continue
			}
			intent.TaskAssignments = append(intent.TaskAssignments, TaskAssignment{
				Assignee: decodeString(a["assignee"]),
				Task:     decodeString(a["task"]),
				DueDate:  decodeString(a["due_date"]),
			})
		}
	}

	return intent, nil
}

func decodeString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	return strings.EqualFold(decodeString(raw), "true")
}

func decodeAttendees(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		email := decodeString(item)
		key := strings.ToLower(email)
		if email == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, email)
	}
	return out
}
