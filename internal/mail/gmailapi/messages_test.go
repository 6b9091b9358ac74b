package gmailapi

import (
	"encoding/base64"
	"strings"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name: "simple plain text",
			payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: b64("hello body")},
			},
			want: "hello body",
		},
		{
			name: "multipart prefers text/plain",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: b64("plain version")},
					},
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: b64("<p>html version</p>")},
					},
				},
			},
			want: "plain version",
		},
		{
			name: "nested multipart",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							{
								MimeType: "text/plain",
								Body:     &gmail.MessagePartBody{Data: b64("deep plain")},
							},
						},
					},
				},
			},
			want: "deep plain",
		},
		{
			name: "html only falls back",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: b64("<p>only html</p>")},
					},
				},
			},
			want: "<p>only html</p>",
		},
		{
			name:    "empty payload",
			payload: &gmail.MessagePart{MimeType: "multipart/mixed"},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBody(tt.payload); got != tt.want {
				t.Errorf("extractBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRawMessage(t *testing.T) {
	raw := buildRawMessage("dest@example.com", "Hi there", "body text")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw message is not URL-safe base64: %v", err)
	}

	s := string(decoded)
	if !strings.Contains(s, "To: dest@example.com\r\n") {
		t.Error("missing To header")
	}
	if !strings.Contains(s, "Subject: Hi there\r\n") {
		t.Error("missing Subject header")
	}
	if !strings.HasSuffix(s, "\r\n\r\nbody text") {
		t.Errorf("body not separated from headers: %q", s)
	}
}

func TestSummarize(t *testing.T) {
	msg := &gmail.Message{
		Id:      "18c2f4a9000b7d31",
		Snippet: "snippet text",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "Subject", Value: "Lunch"},
				{Name: "Date", Value: "Mon, 2 Jun 2025 10:00:00 -0700"},
			},
		},
	}

	s := summarize(msg)
	if s.ID != "18c2f4a9000b7d31" || s.From != "Alice <alice@example.com>" ||
		s.Subject != "Lunch" || s.Snippet != "snippet text" {
		t.Errorf("summarize() = %+v", s)
	}
}
