// Package llm holds the provider-neutral shape of a chat completion call.
package llm

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion call. JSON asks the provider for a single
// JSON object as the reply.
type Request struct {
	Messages    []Message
	Temperature float64
	JSON        bool
}

// Completer is a chat completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
