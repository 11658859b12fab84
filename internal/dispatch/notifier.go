package dispatch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/taskscribe/internal/contacts"
	"github.com/MikeSquared-Agency/taskscribe/internal/metrics"
	"github.com/MikeSquared-Agency/taskscribe/internal/slack"
)

// Mailer sends HTML email as the authorised user.
type Mailer interface {
	Ready(ctx context.Context) bool
	SendHTML(ctx context.Context, to, subject, html string) (string, error)
}

// Chatter posts Block Kit messages to a user or channel.
type Chatter interface {
	Ready() bool
	PostMessage(ctx context.Context, channel, text string, blocks []slack.Block) (string, error)
}

// Notifier tells a resolved assignee about a task over email and chat.
// Either channel may be nil when it is not configured at all.
type Notifier struct {
	mail   Mailer
	chat   Chatter
	loc    *time.Location
	logger *slog.Logger
}

func NewNotifier(mail Mailer, chat Chatter, loc *time.Location, logger *slog.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{mail: mail, chat: chat, loc: loc, logger: logger}
}

// Notify attempts both channels concurrently. A channel whose contact field
// or credential is missing is not attempted; a failed send on one channel
// does not affect the other.
func (n *Notifier) Notify(ctx context.Context, name string, contact contacts.Contact, task, dueDate string) Delivery {
	d := Skipped()
	dueLine := dueDateLine(dueDate, n.loc)

	var g errgroup.Group
	g.Go(func() error {
		d.Email = n.sendEmail(ctx, name, contact.Email, task, dueLine)
		return nil
	})
	g.Go(func() error {
		d.Chat = n.sendChat(ctx, name, contact.ChatHandle, task, dueLine)
		return nil
	})
	_ = g.Wait()

	metrics.RecordNotification("email", string(d.Email))
	metrics.RecordNotification("chat", string(d.Chat))
	return d
}

func (n *Notifier) sendEmail(ctx context.Context, name, to, task, dueLine string) Outcome {
	if to == "" {
		return NotAttempted
	}
	if n.mail == nil || !n.mail.Ready(ctx) {
		n.logger.Warn("no mail credentials, email not sent", "recipient", name)
		return NotAttempted
	}

	if _, err := n.mail.SendHTML(ctx, to, emailSubject(task), emailBody(name, task, dueLine)); err != nil {
		n.logger.Error("failed to send task email", "recipient", name, "error", err)
		return Failed
	}
	n.logger.Info("sent task email", "recipient", name)
	return Sent
}

func (n *Notifier) sendChat(ctx context.Context, name, handle, task, dueLine string) Outcome {
	if handle == "" {
		return NotAttempted
	}
	if n.chat == nil || !n.chat.Ready() {
		n.logger.Warn("no chat token, chat message not sent", "recipient", name)
		return NotAttempted
	}

	if _, err := n.chat.PostMessage(ctx, handle, "New task assignment: "+task, chatBlocks(name, task, dueLine)); err != nil {
		n.logger.Error("failed to send task chat message", "recipient", name, "handle", handle, "error", err)
		return Failed
	}
	n.logger.Info("sent task chat message", "recipient", name, "handle", handle)
	return Sent
}
