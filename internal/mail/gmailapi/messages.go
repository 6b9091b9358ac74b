package gmailapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/mailvox/mailvox/internal/mail"
)

// defaultMaxResults bounds list and search calls when the caller does
// not specify a limit.
const defaultMaxResults = 10

// ListMessages returns recent inbox messages. query uses Gmail search
// syntax (e.g., "category:primary", "is:unread") and may be empty.
func (c *Client) ListMessages(ctx context.Context, query string, maxResults int) ([]mail.Summary, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	call := c.srv.Users.Messages.List(user).
		MaxResults(int64(maxResults)).
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}

	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	summaries := make([]mail.Summary, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg, err := c.srv.Users.Messages.Get(user, m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Debug("skipping unreadable message", "id", m.Id, "error", err)
			continue
		}
		summaries = append(summaries, summarize(msg))
	}

	return summaries, nil
}

// SearchMessages is ListMessages with a mandatory query; the Gmail API
// expresses both through the same list endpoint.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int) ([]mail.Summary, error) {
	return c.ListMessages(ctx, query, maxResults)
}

// ReadMessage fetches the full content of one message.
func (c *Client) ReadMessage(ctx context.Context, id string) (*mail.Message, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read message %s: %w", id, err)
	}

	result := &mail.Message{ID: id}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				result.From = h.Value
			case "Subject":
				result.Subject = h.Value
			case "Date":
				result.Date = h.Value
			}
		}
		result.Body = extractBody(msg.Payload)
	}
	if result.Body == "" {
		result.Body = msg.Snippet
	}

	return result, nil
}

// SendMessage delivers a new message from the authenticated account.
func (c *Client) SendMessage(ctx context.Context, to, subject, body string) error {
	raw := buildRawMessage(to, subject, body)

	_, err := c.srv.Users.Messages.Send(user, &gmail.Message{Raw: raw}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("send message to %s: %w", to, err)
	}
	return nil
}

// summarize extracts list-view metadata from a metadata-format message.
func summarize(msg *gmail.Message) mail.Summary {
	s := mail.Summary{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		return s
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			s.From = h.Value
		case "Subject":
			s.Subject = h.Value
		case "Date":
			s.Date = h.Value
		}
	}
	return s
}

// extractBody walks the MIME tree for the first text/plain part,
// falling back to any text part. Gmail base64url-encodes part data.
func extractBody(payload *gmail.MessagePart) string {
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(data)
		}
	}

	for _, part := range payload.Parts {
		mt := strings.ToLower(part.MimeType)
		if strings.HasPrefix(mt, "text/") || strings.HasPrefix(mt, "multipart/") {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}

	// Single-part non-plain message: decode whatever the body holds.
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(data)
		}
	}

	return ""
}

// buildRawMessage assembles a minimal RFC 2822 message and encodes it
// the way the Gmail send endpoint expects (URL-safe base64, no padding
// requirements beyond the standard alphabet).
func buildRawMessage(to, subject, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}
