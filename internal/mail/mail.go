// Package mail defines the uniform provider surface over the two mail
// backends. The assistant core only ever talks to the Provider
// interface; the concrete REST (gmailapi) and IMAP/SMTP (imapmail)
// clients live in subpackages.
package mail

// Account names. The primary account is the REST (Gmail API) provider;
// the secondary is the IMAP/SMTP provider.
const (
	AccountPrimary   = "primary"
	AccountSecondary = "secondary"
)

// Summary is the list-view metadata for one message. ID is opaque and
// provider-specific: the secondary provider uses numeric-string IMAP
// UIDs, the primary uses opaque hex-like Gmail ids. That shape
// difference is what routes an id back to the right provider.
type Summary struct {
	ID      string
	From    string
	Subject string
	Date    string
	Snippet string
}

// Message is the full content of one message, fetched on demand.
type Message struct {
	ID      string
	From    string
	Subject string
	Date    string
	Body    string
}
