package assistant

import (
	"fmt"
	"strings"

	"github.com/mailvox/mailvox/internal/mail"
	"github.com/mailvox/mailvox/internal/session"
	"github.com/mailvox/mailvox/internal/textutil"
)

// maxFromChars keeps sender names short enough for a phone screen.
const maxFromChars = 40

// formatList renders a listing the way it is spoken back to the user.
func formatList(summaries []mail.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d emails. Showing top %d:\n\n", len(summaries), len(summaries))

	for i, s := range summaries {
		from := textutil.Truncate(s.From, maxFromChars)
		subject := s.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, from, subject)
	}

	sb.WriteString("\nSay \"read email 1\" to open one.")
	return sb.String()
}

// formatMessage renders a fully-read message.
func formatMessage(position int, msg *mail.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Email %d\nFrom: %s\nSubject: %s\n", position, msg.From, msg.Subject)
	if msg.Date != "" {
		fmt.Fprintf(&sb, "Date: %s\n", msg.Date)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(msg.Body))
	sb.WriteString("\n\nSay \"draft a reply\" to respond.")
	return sb.String()
}

// formatDraftPreview renders the pending draft with the send/cancel
// prompt the confirmation step depends on.
func formatDraftPreview(d session.Draft) string {
	return fmt.Sprintf(
		"Here's the draft reply:\n\nTo: %s\nSubject: %s\n\n%s\n\nSay \"send reply\" to send it, or \"cancel\" to discard.",
		d.To, d.Subject, d.Body)
}

// sessionSummary describes the session to the classifier so it can
// resolve references to loaded or read messages.
func sessionSummary(s *session.Session) string {
	if s.ListLen() == 0 {
		return "No emails loaded."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d emails loaded from the %s account:\n", s.ListLen(), s.Account())
	for i, sum := range s.List() {
		read := ""
		if _, ok := s.ReadAt(i + 1); ok {
			read = " (read)"
		}
		fmt.Fprintf(&sb, "%d. id=%s from=%s subject=%s%s\n", i+1, sum.ID, sum.From, sum.Subject, read)
	}
	if d, ok := s.Draft(); ok {
		fmt.Fprintf(&sb, "A draft reply to %s is pending confirmation.\n", d.To)
	}
	return sb.String()
}

// replyRecipient derives the reply-to address from a From header:
// the angle-bracket address when present, the header verbatim when it
// looks like a bare address, otherwise the header as-is.
func replyRecipient(from string) string {
	if start := strings.LastIndexByte(from, '<'); start >= 0 {
		if end := strings.IndexByte(from[start:], '>'); end > 0 {
			return from[start+1 : start+end]
		}
	}
	return strings.TrimSpace(from)
}

// replySubject prefixes Re: unless the subject already carries one in
// any case.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
