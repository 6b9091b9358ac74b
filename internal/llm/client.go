// Package llm provides the chat-completion client used for intent
// classification and reply drafting.
package llm

import "context"

// Message represents a chat message for the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-request model parameters. Zero values mean "use the
// provider default".
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client is the interface the rest of the program uses to talk to a
// chat-completion provider. Complete returns the assistant message
// content for the given conversation.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
