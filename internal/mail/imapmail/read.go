package imapmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"

	"github.com/mailvox/mailvox/internal/mail"
	"github.com/mailvox/mailvox/internal/textutil"
)

// maxBodySize caps the extracted text body; longer bodies are truncated
// with a note.
const maxBodySize = 32 * 1024

// maxRawMessageSize caps how much of the raw RFC822 literal is buffered.
// Messages with huge attachments are truncated and the remainder of the
// literal drained to keep the IMAP stream in sync.
const maxRawMessageSize = 5 * 1024 * 1024

// drainLiteral reads and discards an IMAP literal so an unconsumed body
// section cannot block the stream.
func drainLiteral(r imap.LiteralReader) {
	if r == nil {
		return
	}
	_, _ = io.Copy(io.Discard, r)
}

// ReadMessage fetches and parses a single INBOX message. id must be a
// decimal UID as issued by ListMessages. Fetching without peek marks
// the message \Seen on the server.
func (p *Provider) ReadMessage(ctx context.Context, id string) (*mail.Message, error) {
	uid64, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", id, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(ctx); err != nil {
		return nil, err
	}
	if _, err := p.selectInbox(); err != nil {
		return nil, err
	}

	uidSet := imap.UIDSet{}
	uidSet.AddNum(imap.UID(uid64))

	fetchOpts := &imap.FetchOptions{
		UID:      true,
		Envelope: true,
		BodySection: []*imap.FetchItemBodySection{
			{Peek: false},
		},
	}

	fetchCmd := p.client.Fetch(uidSet, fetchOpts)

	msg := fetchCmd.Next()
	if msg == nil {
		_ = fetchCmd.Close()
		return nil, fmt.Errorf("message UID %s not found in INBOX", id)
	}

	result := &mail.Message{ID: id}
	var rawBody []byte

	for {
		item := msg.Next()
		if item == nil {
			break
		}

		switch data := item.(type) {
		case imapclient.FetchItemDataEnvelope:
			if data.Envelope != nil {
				result.Subject = data.Envelope.Subject
				if !data.Envelope.Date.IsZero() {
					result.Date = data.Envelope.Date.Format(time.RFC1123Z)
				}
				if len(data.Envelope.From) > 0 {
					result.From = formatAddress(data.Envelope.From[0])
				}
			}
		case imapclient.FetchItemDataBodySection:
			// Consume the literal immediately; msg.Next() advances past
			// unread literals, so deferring the read would lose the body.
			if data.Literal == nil {
				p.logger.Debug("nil body literal", "uid", id)
				continue
			}
			var readErr error
			rawBody, readErr = io.ReadAll(io.LimitReader(data.Literal, maxRawMessageSize))
			drainLiteral(data.Literal)
			if readErr != nil {
				p.logger.Debug("error reading body literal", "uid", id, "error", readErr)
				rawBody = nil
			}
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetch message UID %s: %w", id, err)
	}

	if rawBody != nil {
		if err := p.parseBody(result, bytes.NewReader(rawBody)); err != nil {
			p.logger.Debug("body parse error", "uid", id, "error", err)
		}
	}

	return result, nil
}

// parseBody walks the MIME structure for the text body, preferring
// text/plain and falling back to tag-stripped text/html.
//
// go-message's CreateReader and NextPart may return both a valid
// reader/part AND an error when the message uses an unknown charset.
// Those are non-fatal; the content may be slightly garbled but is still
// usable.
func (p *Provider) parseBody(msg *mail.Message, r io.Reader) error {
	mailReader, err := gomail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return fmt.Errorf("create mail reader: %w", err)
	}
	if mailReader == nil {
		return fmt.Errorf("create mail reader returned nil (%v)", err)
	}
	if err != nil {
		p.logger.Debug("mail reader created with charset warning", "error", err)
	}

	var textBody, htmlBody string

	for {
		part, err := mailReader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return fmt.Errorf("next part: %w", err)
		}
		if part == nil {
			continue
		}
		if err != nil {
			p.logger.Debug("part has charset warning", "error", err)
		}

		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			// Skip attachment bodies.
			continue
		}
		contentType, _, _ := inline.ContentType()

		switch {
		case contentType == "text/plain" && textBody == "":
			textBody = readTextPart(part.Body, p.logger)
		case contentType == "text/html" && htmlBody == "":
			htmlBody = readTextPart(part.Body, p.logger)
		}
	}

	switch {
	case textBody != "":
		msg.Body = textBody
	case htmlBody != "":
		msg.Body = textutil.CollapseWhitespace(textutil.StripHTML(htmlBody))
	}

	return nil
}

// readTextPart reads a text part up to maxBodySize, appending a
// truncation note if the limit is hit.
func readTextPart(r io.Reader, logger interface{ Debug(string, ...any) }) string {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		logger.Debug("error reading text part", "error", err)
		return ""
	}
	text := string(body)
	if len(body) > maxBodySize {
		text = text[:maxBodySize] + "\n\n[truncated — message exceeds 32KB]"
	}
	return strings.TrimSpace(text)
}
