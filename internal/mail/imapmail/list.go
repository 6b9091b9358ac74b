package imapmail

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mailvox/mailvox/internal/mail"
)

// defaultMaxResults bounds list and search calls when the caller does
// not specify a limit.
const defaultMaxResults = 10

// ListMessages returns recent INBOX messages newest-first. query is a
// free-text filter matched against message content; empty lists
// everything.
func (p *Provider) ListMessages(ctx context.Context, query string, maxResults int) ([]mail.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(ctx); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if _, err := p.selectInbox(); err != nil {
		return nil, err
	}

	criteria := &imap.SearchCriteria{}
	if query != "" {
		criteria.Text = append(criteria.Text, query)
	}

	searchData, err := p.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search INBOX: %w", err)
	}

	allUIDs := searchData.AllUIDs()
	if len(allUIDs) == 0 {
		return nil, nil
	}

	// Highest UIDs are newest; take the last N.
	start := 0
	if len(allUIDs) > maxResults {
		start = len(allUIDs) - maxResults
	}
	recentUIDs := allUIDs[start:]

	uidSet := imap.UIDSet{}
	for _, uid := range recentUIDs {
		uidSet.AddNum(uid)
	}

	return p.fetchSummaries(uidSet)
}

// SearchMessages lists messages matching the query; the IMAP SEARCH
// command handles both listing and searching.
func (p *Provider) SearchMessages(ctx context.Context, query string, maxResults int) ([]mail.Summary, error) {
	return p.ListMessages(ctx, query, maxResults)
}

// fetchSummaries fetches envelope data for the given UIDs and returns
// summaries newest-first. Caller must hold p.mu with INBOX selected.
func (p *Provider) fetchSummaries(uidSet imap.UIDSet) ([]mail.Summary, error) {
	fetchOpts := &imap.FetchOptions{
		UID:      true,
		Envelope: true,
	}

	fetchCmd := p.client.Fetch(uidSet, fetchOpts)

	var summaries []mail.Summary
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		s, err := parseSummary(msg)
		if err != nil {
			p.logger.Debug("skipping message", "error", err)
			continue
		}
		summaries = append(summaries, s)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}

	// Reverse to newest-first (fetch returns ascending UID order).
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}

	return summaries, nil
}

// parseSummary extracts a Summary from IMAP fetch response items.
func parseSummary(msg *imapclient.FetchMessageData) (mail.Summary, error) {
	var s mail.Summary
	var uid imap.UID

	for {
		item := msg.Next()
		if item == nil {
			break
		}

		switch data := item.(type) {
		case imapclient.FetchItemDataUID:
			uid = data.UID
		case imapclient.FetchItemDataEnvelope:
			if data.Envelope != nil {
				s.Subject = data.Envelope.Subject
				if !data.Envelope.Date.IsZero() {
					s.Date = data.Envelope.Date.Format(time.RFC1123Z)
				}
				if len(data.Envelope.From) > 0 {
					s.From = formatAddress(data.Envelope.From[0])
				}
			}
		case imapclient.FetchItemDataBodySection:
			// Drain unexpected body literals to keep the stream in sync.
			drainLiteral(data.Literal)
		}
	}

	if uid == 0 {
		return s, fmt.Errorf("message missing UID")
	}
	s.ID = strconv.FormatUint(uint64(uid), 10)

	return s, nil
}

// formatAddress formats an IMAP address as "Name <user@host>" or just
// "user@host" if no name is set.
func formatAddress(addr imap.Address) string {
	email := addr.Addr()
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, email)
	}
	return email
}
