package mail

import "context"

// Provider is the operation set the assistant core needs from a mail
// backend. All methods may block on the network; callers pass a context
// and own any timeout policy.
type Provider interface {
	// ListMessages returns recent message summaries, newest first.
	// query uses the provider's native search syntax and may be empty.
	ListMessages(ctx context.Context, query string, maxResults int) ([]Summary, error)

	// SearchMessages returns summaries matching the query, newest first.
	SearchMessages(ctx context.Context, query string, maxResults int) ([]Summary, error)

	// ReadMessage fetches the full content of one message by id.
	ReadMessage(ctx context.Context, id string) (*Message, error)

	// SendMessage delivers a new message from this account.
	SendMessage(ctx context.Context, to, subject, body string) error
}
