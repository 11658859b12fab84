package google

import (
	"context"
	"log/slog"
)

const defaultEventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// Event is the subset of a Calendar v3 event resource that we create.
type Event struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	Reminders   Reminders  `json:"reminders"`
}

type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type Attendee struct {
	Email string `json:"email"`
}

type Reminders struct {
	UseDefault bool `json:"useDefault"`
}

// CreatedEvent is what the API returns for an inserted event.
type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

type Calendar struct {
	creds  Credentials
	apiURL string
	logger *slog.Logger
}

func NewCalendar(creds Credentials, logger *slog.Logger) *Calendar {
	return &Calendar{creds: creds, apiURL: defaultEventsURL, logger: logger}
}

// Ready reports whether calendar credentials are available.
func (c *Calendar) Ready(ctx context.Context) bool {
	return Available(ctx, c.creds)
}

// InsertEvent creates ev on the primary calendar.
func (c *Calendar) InsertEvent(ctx context.Context, ev Event) (*CreatedEvent, error) {
	client, err := c.creds.Client(ctx)
	if err != nil {
		return nil, err
	}

	var created CreatedEvent
	if err := postJSON(ctx, client, c.apiURL, ev, &created); err != nil {
		return nil, err
	}

	c.logger.Info("calendar event created", "event_id", created.ID, "link", created.HTMLLink)
	return &created, nil
}
