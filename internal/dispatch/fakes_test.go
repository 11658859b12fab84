package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/MikeSquared-Agency/taskscribe/internal/google"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCalendar struct {
	ready  bool
	err    error
	events []google.Event
}

func (f *fakeCalendar) Ready(context.Context) bool { return f.ready }

func (f *fakeCalendar) InsertEvent(_ context.Context, ev google.Event) (*google.CreatedEvent, error) {
	f.events = append(f.events, ev)
	if f.err != nil {
		return nil, f.err
	}
	return &google.CreatedEvent{ID: "evt-1", HTMLLink: "https://calendar/evt-1"}, nil
}

type sentMail struct {
	To, Subject, HTML string
}

type fakeMailer struct {
	mu    sync.Mutex
	ready bool
	err   error
	sent  []sentMail
}

func (f *fakeMailer) Ready(context.Context) bool { return f.ready }

func (f *fakeMailer) SendHTML(_ context.Context, to, subject, html string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, HTML: html})
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type postedChat struct {
	Channel, Text string
	Blocks        []slack.Block
}

type fakeChatter struct {
	mu     sync.Mutex
	ready  bool
	err    error
	posted []postedChat
}

func (f *fakeChatter) Ready() bool { return f.ready }

func (f *fakeChatter) PostMessage(_ context.Context, channel, text string, blocks []slack.Block) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, postedChat{Channel: channel, Text: text, Blocks: blocks})
	if f.err != nil {
		return "", f.err
	}
	return "1.2", nil
}

var errRemote = errors.New("remote unavailable")
