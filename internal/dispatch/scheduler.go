package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/taskscribe/internal/extractor"
	"github.com/MikeSquared-Agency/taskscribe/internal/google"
	"github.com/MikeSquared-Agency/taskscribe/internal/metrics"
)

const defaultEventTitle = "Meeting from transcript"

// Calendar creates events on the user's primary calendar.
type Calendar interface {
	Ready(ctx context.Context) bool
	InsertEvent(ctx context.Context, ev google.Event) (*google.CreatedEvent, error)
}

// Scheduler turns a scheduling intent into a calendar event.
type Scheduler struct {
	cal      Calendar
	timeZone string
	loc      *time.Location
	logger   *slog.Logger
}

// NewScheduler uses timeZone both to read offset-less timestamps and as the
// event's display zone. An unknown zone falls back to UTC.
func NewScheduler(cal Calendar, timeZone string, logger *slog.Logger) *Scheduler {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		logger.Warn("unknown time zone, using UTC", "time_zone", timeZone, "error", err)
		loc, timeZone = time.UTC, "UTC"
	}
	return &Scheduler{cal: cal, timeZone: timeZone, loc: loc, logger: logger}
}

// Schedule creates the event and reports whether the calendar confirmed it.
// Every failure is logged and reported as false.
func (s *Scheduler) Schedule(ctx context.Context, intent *extractor.Intent) bool {
	if intent == nil || !intent.SchedulingIntent {
		return false
	}

	if s.cal == nil || !s.cal.Ready(ctx) {
		s.logger.Warn("no calendar credentials, event not created")
		metrics.RecordEvent("skipped")
		return false
	}

	start, end, ok := intent.Window(s.loc)
	if !ok {
		s.logger.Warn("scheduling intent without a usable time window",
			"start_time", intent.StartTime,
			"end_time", intent.EndTime,
		)
		metrics.RecordEvent("skipped")
		return false
	}

	created, err := s.cal.InsertEvent(ctx, s.buildEvent(intent, start, end))
	if err != nil {
		s.logger.Error("failed to create calendar event", "error", err)
		metrics.RecordEvent("failed")
		return false
	}

	s.logger.Info("scheduled event from transcript", "event_id", created.ID, "link", created.HTMLLink)
	metrics.RecordEvent("created")
	return true
}

func (s *Scheduler) buildEvent(intent *extractor.Intent, start, end time.Time) google.Event {
	title := intent.EventTitle
	if title == "" {
		title = defaultEventTitle
	}

	ev := google.Event{
		Summary:     title,
		Description: "Automatically scheduled from transcript. Notes: " + intent.Notes,
		Location:    intent.Location,
		Start:       google.EventTime{DateTime: start.In(s.loc).Format(time.RFC3339), TimeZone: s.timeZone},
		End:         google.EventTime{DateTime: end.In(s.loc).Format(time.RFC3339), TimeZone: s.timeZone},
		Reminders:   google.Reminders{UseDefault: true},
	}
	for _, email := range intent.Attendees {
		if strings.Contains(email, "@") {
			ev.Attendees = append(ev.Attendees, google.Attendee{Email: email})
		}
	}
	return ev
}
