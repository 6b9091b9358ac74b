// Package session holds per-user conversation state: the last listing,
// messages read out of it, and the single pending draft. Sessions are
// plain data; callers serialize access per user.
package session

import "github.com/mailvox/mailvox/internal/mail"

// ReadMessage is a fully-read message tied back to its listing position.
type ReadMessage struct {
	mail.Message

	// Account names the provider the message came from.
	Account string

	// ListPosition is the 1-based position in the listing the message
	// was read from.
	ListPosition int
}

// Draft is a reply waiting for explicit confirmation before sending.
// At most one draft exists per session; a new one replaces it.
type Draft struct {
	To      string
	Subject string
	Body    string

	// Account names the provider the draft will send through.
	Account string

	// ForPosition is the listing position of the message being replied
	// to, or 0 for a fresh composition.
	ForPosition int
}

// Session is one user's conversation state. All positions are 1-based
// listing indices. The zero value is a valid empty session.
type Session struct {
	listing     []mail.Summary
	account     string
	read        map[int]ReadMessage
	draft       *Draft
	lastTouched int
}

// SetList replaces the listing. Any read messages, pending draft, and
// last-touched position refer to the old listing, so they are dropped
// in the same step; a failed list leaves everything untouched because
// this is only called on success.
func (s *Session) SetList(summaries []mail.Summary, account string) {
	s.listing = make([]mail.Summary, len(summaries))
	copy(s.listing, summaries)
	s.account = account
	s.read = nil
	s.draft = nil
	s.lastTouched = 0
}

// List returns the current listing. Callers must not modify it.
func (s *Session) List() []mail.Summary {
	return s.listing
}

// ListLen returns the number of messages in the current listing.
func (s *Session) ListLen() int {
	return len(s.listing)
}

// Account returns the account the current listing came from.
func (s *Session) Account() string {
	return s.account
}

// Summary returns the listing entry at the 1-based position.
func (s *Session) Summary(position int) (mail.Summary, bool) {
	if position < 1 || position > len(s.listing) {
		return mail.Summary{}, false
	}
	return s.listing[position-1], true
}

// SetRead records a fully-read message at its listing position and
// marks that position as most recently touched.
func (s *Session) SetRead(position int, msg ReadMessage) {
	if s.read == nil {
		s.read = make(map[int]ReadMessage)
	}
	msg.ListPosition = position
	s.read[position] = msg
	s.lastTouched = position
}

// ReadAt returns the read message at the given position, if any.
func (s *Session) ReadAt(position int) (ReadMessage, bool) {
	msg, ok := s.read[position]
	return msg, ok
}

// LastTouched returns the most recently read position, or 0 if nothing
// has been read from the current listing.
func (s *Session) LastTouched() int {
	return s.lastTouched
}

// SetDraft stores the pending draft, replacing any existing one.
func (s *Session) SetDraft(d Draft) {
	s.draft = &d
}

// Draft returns the pending draft, if any.
func (s *Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// ClearDraft discards the pending draft. Discarding when none exists is
// a no-op.
func (s *Session) ClearDraft() {
	s.draft = nil
}

// Clear resets the session to its zero state.
func (s *Session) Clear() {
	*s = Session{}
}
