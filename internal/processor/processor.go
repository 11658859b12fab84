package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/dispatch"
	"github.com/MikeSquared-Agency/taskscribe/internal/extractor"
	"github.com/MikeSquared-Agency/taskscribe/internal/hermes"
	"github.com/MikeSquared-Agency/taskscribe/internal/metrics"
)

type IntentExtractor interface {
	Extract(ctx context.Context, transcript string) (*extractor.Intent, error)
}

type EventScheduler interface {
	Schedule(ctx context.Context, intent *extractor.Intent) bool
}

type TaskNotifier interface {
	Notify(ctx context.Context, name string, contact contacts.Contact, task, dueDate string) dispatch.Delivery
}

// DirectorySource yields a freshly loaded contact directory on each call.
type DirectorySource interface {
	Load() contacts.Directory
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, res *Result, transcriptChars int) error
}

type Publisher interface {
	Publish(subject string, data any) error
}

// TaskResult is the record of one extracted assignment.
type TaskResult struct {
	Assignee     string           `json:"assignee"`
	Task         string           `json:"task"`
	DueDate      string           `json:"due_date,omitempty"`
	ResolvedName string           `json:"resolved_name,omitempty"`
	Resolution   contacts.Status  `json:"resolution"`
	Candidates   []string         `json:"candidates,omitempty"`
	Email        dispatch.Outcome `json:"email"`
	Chat         dispatch.Outcome `json:"chat"`
	EmailSent    bool             `json:"email_sent"`
	SlackSent    bool             `json:"slack_sent"`
}

// Result is the aggregate outcome of one pipeline run. AssignedTasks is never
// nil so it always renders as a JSON array.
type Result struct {
	RunID          uuid.UUID    `json:"run_id"`
	CreatedAt      time.Time    `json:"created_at"`
	ScheduledEvent bool         `json:"scheduled_event"`
	AssignedTasks  []TaskResult `json:"assigned_tasks"`
	Error          string       `json:"error,omitempty"`
}

// Processor runs the transcript pipeline: extract, schedule, resolve, notify.
type Processor struct {
	extractor IntentExtractor
	scheduler EventScheduler
	notifier  TaskNotifier
	directory DirectorySource
	recorder  RunRecorder
	publisher Publisher
	logger    *slog.Logger
}

func New(ext IntentExtractor, sched EventScheduler, notif TaskNotifier, dir DirectorySource, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: ext,
		scheduler: sched,
		notifier:  notif,
		directory: dir,
		logger:    logger,
	}
}

// WithRecorder enables run history.
func (p *Processor) WithRecorder(r RunRecorder) *Processor {
	p.recorder = r
	return p
}

// WithPublisher enables completion events.
func (p *Processor) WithPublisher(pub Publisher) *Processor {
	p.publisher = pub
	return p
}

// Run processes one transcript to completion. Only an extraction failure
// stops the run; it is reported in Result.Error with no assignments.
func (p *Processor) Run(ctx context.Context, segments []Segment) *Result {
	start := time.Now()
	res := &Result{
		RunID:         uuid.New(),
		CreatedAt:     start.UTC(),
		AssignedTasks: []TaskResult{},
	}
	logger := p.logger.With("run_id", res.RunID)
	defer func() { metrics.RecordDuration(time.Since(start).Seconds()) }()

	transcript := JoinSegments(segments)
	logger.Info("processing transcript", "segments", len(segments), "chars", len(transcript))

	intent, err := p.extractor.Extract(ctx, transcript)
	if err != nil {
		logger.Error("intent extraction failed", "error", err)
		res.Error = err.Error()
		metrics.RecordTranscript("failed")
		p.record(ctx, res, len(transcript))
		return res
	}

	if intent.SchedulingIntent {
		res.ScheduledEvent = p.scheduler.Schedule(ctx, intent)
	}

	if len(intent.TaskAssignments) > 0 {
		dir := p.directory.Load()
		for _, a := range intent.TaskAssignments {
			if !a.Dispatchable() {
				logger.Warn("skipping incomplete task assignment", "assignee", a.Assignee, "task", a.Task)
				metrics.RecordResolution(string(contacts.StatusInvalid))
				res.AssignedTasks = append(res.AssignedTasks, skippedTask(a))
				continue
			}
			res.AssignedTasks = append(res.AssignedTasks, p.dispatchTask(ctx, logger, dir, a))
		}
	}

	metrics.RecordTranscript("processed")
	logger.Info("transcript processed",
		"scheduled_event", res.ScheduledEvent,
		"assigned_tasks", len(res.AssignedTasks),
	)
	p.record(ctx, res, len(transcript))
	return res
}

func (p *Processor) dispatchTask(ctx context.Context, logger *slog.Logger, dir contacts.Directory, a extractor.TaskAssignment) TaskResult {
	tr := TaskResult{
		Assignee: strings.ToLower(strings.TrimSpace(a.Assignee)),
		Task:     a.Task,
		DueDate:  a.DueDate,
	}

	res := dir.Resolve(a.Assignee, logger)
	metrics.RecordResolution(string(res.Status))
	tr.Resolution = res.Status
	tr.Candidates = res.Candidates

	delivery := dispatch.Skipped()
	if res.Resolved() {
		tr.ResolvedName = res.Name
		delivery = p.notifier.Notify(ctx, res.Name, res.Contact, a.Task, a.DueDate)
	}

	tr.Email, tr.Chat = delivery.Email, delivery.Chat
	tr.EmailSent, tr.SlackSent = delivery.Email.Sent(), delivery.Chat.Sent()
	return tr
}

// skippedTask records an assignment that cannot be dispatched. Nothing is
// resolved or sent for it.
func skippedTask(a extractor.TaskAssignment) TaskResult {
	return TaskResult{
		Assignee:   strings.ToLower(strings.TrimSpace(a.Assignee)),
		Task:       a.Task,
		DueDate:    a.DueDate,
		Resolution: contacts.StatusInvalid,
		Email:      dispatch.NotAttempted,
		Chat:       dispatch.NotAttempted,
	}
}

func (p *Processor) record(ctx context.Context, res *Result, transcriptChars int) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordRun(ctx, res, transcriptChars); err != nil {
		p.logger.Error("failed to record pipeline run", "run_id", res.RunID, "error", err)
	}
}

// TranscriptReadyEvent is the payload of hermes.SubjectTranscriptReady.
type TranscriptReadyEvent struct {
	MeetingID string          `json:"meeting_id"`
	Segments  json.RawMessage `json:"segments"`
}

// PipelineCompletedEvent is the payload of hermes.SubjectPipelineCompleted.
type PipelineCompletedEvent struct {
	MeetingID string  `json:"meeting_id,omitempty"`
	Result    *Result `json:"result"`
}

// HandleTranscriptReady is the NATS handler for meeting.transcript.ready.
func (p *Processor) HandleTranscriptReady(subject string, data []byte) {
	ctx := context.Background()

	var evt TranscriptReadyEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("failed to parse transcript event", "subject", subject, "error", err)
		return
	}

	segments, err := DecodeSegments(evt.Segments)
	if err != nil {
		p.logger.Error("invalid transcript segments", "meeting_id", evt.MeetingID, "error", err)
		return
	}

	p.logger.Info("transcript ready", "meeting_id", evt.MeetingID)
	res := p.Run(ctx, segments)

	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(hermes.SubjectPipelineCompleted, PipelineCompletedEvent{
		MeetingID: evt.MeetingID,
		Result:    res,
	}); err != nil {
		p.logger.Error("failed to publish pipeline result", "meeting_id", evt.MeetingID, "error", err)
	}
}
