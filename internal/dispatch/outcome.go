package dispatch

// Outcome is the result of one channel for one assignment. It separates
// "never tried" from "tried and failed".
type Outcome string

const (
	NotAttempted Outcome = "not_attempted"
	Failed       Outcome = "failed"
	Sent         Outcome = "sent"
)

func (o Outcome) Sent() bool { return o == Sent }

// Delivery holds the per-channel outcomes of one notification.
type Delivery struct {
	Email Outcome `json:"email"`
	Chat  Outcome `json:"chat"`
}

// Any reports whether at least one channel delivered.
func (d Delivery) Any() bool { return d.Email.Sent() || d.Chat.Sent() }

// Skipped is the delivery recorded for assignments that were never dispatched.
func Skipped() Delivery {
	return Delivery{Email: NotAttempted, Chat: NotAttempted}
}
