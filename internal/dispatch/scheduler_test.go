package dispatch

import (
	"context"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/taskscribe/internal/extractor"
	"github.com/MikeSquared-Agency/taskscribe/internal/google"
)

func schedulingIntent() *extractor.Intent {
	return &extractor.Intent{
		SchedulingIntent: true,
		EventTitle:       "Roadmap sync",
		StartTime:        "2024-01-01T10:00:00",
		EndTime:          "2024-01-01T10:30:00",
		Attendees:        []string{"a@x.com", "not-an-email", "b@x.com"},
		Notes:            "bring numbers",
	}
}

func TestSchedule_CreatesEvent(t *testing.T) {
	cal := &fakeCalendar{ready: true}
	s := NewScheduler(cal, "America/Los_Angeles", discardLogger())

	ok := s.Schedule(context.Background(), schedulingIntent())

	require.True(t, ok)
	require.Len(t, cal.events, 1)
	ev := cal.events[0]
	assert.Equal(t, "Roadmap sync", ev.Summary)
	assert.Equal(t, "Automatically scheduled from transcript. Notes: bring numbers", ev.Description)
	assert.Equal(t, google.EventTime{DateTime: "2024-01-01T10:00:00-08:00", TimeZone: "America/Los_Angeles"}, ev.Start)
	assert.Equal(t, google.EventTime{DateTime: "2024-01-01T10:30:00-08:00", TimeZone: "America/Los_Angeles"}, ev.End)
	assert.Equal(t, []google.Attendee{{Email: "a@x.com"}, {Email: "b@x.com"}}, ev.Attendees)
	assert.Empty(t, ev.Location)
	assert.True(t, ev.Reminders.UseDefault)
}

func TestSchedule_DefaultsAndLocation(t *testing.T) {
	cal := &fakeCalendar{ready: true}
	s := NewScheduler(cal, "UTC", discardLogger())

	intent := schedulingIntent()
	intent.EventTitle = ""
	intent.Location = "Room 4"
	intent.Attendees = nil

	require.True(t, s.Schedule(context.Background(), intent))
	ev := cal.events[0]
	assert.Equal(t, defaultEventTitle, ev.Summary)
	assert.Equal(t, "Room 4", ev.Location)
	assert.Nil(t, ev.Attendees)
}

func TestSchedule_OffsetTimestampsKeepInstant(t *testing.T) {
	cal := &fakeCalendar{ready: true}
	s := NewScheduler(cal, "America/Los_Angeles", discardLogger())

	intent := schedulingIntent()
	intent.StartTime = "2024-01-01T18:00:00Z"
	intent.EndTime = "2024-01-01T18:30:00Z"

	require.True(t, s.Schedule(context.Background(), intent))
	assert.Equal(t, "2024-01-01T10:00:00-08:00", cal.events[0].Start.DateTime)
}

func TestSchedule_NoOps(t *testing.T) {
	tests := []struct {
		name   string
		cal    *fakeCalendar
		intent func() *extractor.Intent
	}{
		{"no scheduling intent", &fakeCalendar{ready: true}, func() *extractor.Intent {
			i := schedulingIntent()
			i.SchedulingIntent = false
			return i
		}},
		{"no credentials", &fakeCalendar{ready: false}, schedulingIntent},
		{"missing end", &fakeCalendar{ready: true}, func() *extractor.Intent {
			i := schedulingIntent()
			i.EndTime = ""
			return i
		}},
		{"unparseable start", &fakeCalendar{ready: true}, func() *extractor.Intent {
			i := schedulingIntent()
			i.StartTime = "tomorrow at ten"
			return i
		}},
		{"nil intent", &fakeCalendar{ready: true}, func() *extractor.Intent { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.cal, "UTC", discardLogger())
			assert.False(t, s.Schedule(context.Background(), tt.intent()))
			assert.Empty(t, tt.cal.events, "calendar must not be called")
		})
	}
}

func TestSchedule_RemoteErrorIsFalse(t *testing.T) {
	cal := &fakeCalendar{ready: true, err: errRemote}
	s := NewScheduler(cal, "UTC", discardLogger())

	assert.False(t, s.Schedule(context.Background(), schedulingIntent()))
	assert.Len(t, cal.events, 1)
}

func TestSchedule_NilCalendar(t *testing.T) {
	s := NewScheduler(nil, "UTC", discardLogger())
	assert.False(t, s.Schedule(context.Background(), schedulingIntent()))
}

func TestNewScheduler_UnknownZoneFallsBackToUTC(t *testing.T) {
	s := NewScheduler(&fakeCalendar{}, "Mars/Olympus_Mons", discardLogger())
	assert.Equal(t, "UTC", s.timeZone)
}
