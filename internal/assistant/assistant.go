// Package assistant is the conversational core: it normalizes each
// utterance, resolves references against the user's session, executes
// the resulting mail operation, and renders the response text. Anything
// it cannot resolve locally is deferred to the intent classifier.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mailvox/mailvox/internal/intent"
	"github.com/mailvox/mailvox/internal/mail"
	"github.com/mailvox/mailvox/internal/session"
	"github.com/mailvox/mailvox/internal/textutil"
)

// Classifier decides what an utterance the resolver could not handle
// actually wants.
type Classifier interface {
	Classify(ctx context.Context, utterance, sessionSummary string) (intent.Decision, error)
}

// ReplyWriter generates draft reply bodies.
type ReplyWriter interface {
	GenerateReplyBody(ctx context.Context, from, subject, body, hint string) (string, error)
}

// Recorder receives every handled exchange for auditing. Recording is
// best-effort; failures are logged and never affect the response.
type Recorder interface {
	Record(ctx context.Context, userID int64, utterance, response string) error
}

// Params collects the assistant's collaborators.
type Params struct {
	Mail       *mail.Manager
	Classifier Classifier
	Replies    ReplyWriter
	Recorder   Recorder
	Logger     *slog.Logger
}

// Assistant is the top-level entry point for all transports.
type Assistant struct {
	sessions   *session.Store
	mail       *mail.Manager
	classifier Classifier
	replies    ReplyWriter
	recorder   Recorder
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates an assistant. Recorder may be nil.
func New(p Params) *Assistant {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		sessions:   session.NewStore(),
		mail:       p.Mail,
		classifier: p.Classifier,
		replies:    p.Replies,
		recorder:   p.Recorder,
		logger:     logger,
		locks:      make(map[int64]*sync.Mutex),
	}
}

// Handle processes one utterance for one user and returns the response
// text. Utterances from the same user are serialized; a second message
// arriving while one is in flight waits its turn. Different users
// proceed concurrently.
func (a *Assistant) Handle(ctx context.Context, userID int64, utterance string) string {
	lock := a.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger := a.logger.With("user", userID, "request", shortID())
	normalized := Normalize(utterance)
	logger.Debug("handling utterance", "normalized", normalized)

	s := a.sessions.Get(userID)
	_, hasDraft := s.Draft()
	action := Resolve(View{
		ListLen:     s.ListLen(),
		HasDraft:    hasDraft,
		LastTouched: s.LastTouched(),
	}, normalized)

	var response string
	switch action.Kind {
	case KindSend:
		response = a.sendDraft(ctx, s, logger)
	case KindCancel:
		response = a.cancelDraft(s)
	case KindRead:
		response = a.readPosition(ctx, s, action.Position, logger)
	case KindDraft:
		response = a.draftReply(ctx, s, action.Position, action.Hint, logger)
	case KindClarify:
		response = action.Message
	default:
		response = a.classify(ctx, s, normalized, logger)
	}

	a.record(ctx, userID, utterance, response, logger)
	return response
}

// Reset discards a user's session.
func (a *Assistant) Reset(userID int64) {
	a.sessions.Reset(userID)
}

func (a *Assistant) userLock(userID int64) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[userID] = l
	}
	return l
}

// sendDraft delivers the pending draft. A provider failure leaves the
// draft intact so the user can retry.
func (a *Assistant) sendDraft(ctx context.Context, s *session.Session, logger *slog.Logger) string {
	d, ok := s.Draft()
	if !ok {
		return "There's no draft waiting to be sent. Ask me to draft a reply first."
	}

	provider, err := a.mail.Account(d.Account)
	if err != nil {
		return fmt.Sprintf("I can't send the reply: %v", err)
	}

	if err := provider.SendMessage(ctx, d.To, d.Subject, d.Body); err != nil {
		logger.Warn("send failed", "to", d.To, "error", err)
		return fmt.Sprintf("I couldn't send the reply: %v. The draft is still saved — say \"send reply\" to try again or \"cancel\" to discard it.", err)
	}

	s.ClearDraft()
	logger.Info("draft sent", "to", d.To)
	return fmt.Sprintf("Reply sent to %s.", d.To)
}

// cancelDraft discards the pending draft. Canceling with nothing
// pending acknowledges without complaint.
func (a *Assistant) cancelDraft(s *session.Session) string {
	if _, ok := s.Draft(); !ok {
		return "There's nothing to cancel."
	}
	s.ClearDraft()
	return "Okay, I've discarded the draft."
}

// readPosition fetches and caches the message at a listing position.
// Out-of-range positions report the valid range without touching state.
func (a *Assistant) readPosition(ctx context.Context, s *session.Session, position int, logger *slog.Logger) string {
	summary, ok := s.Summary(position)
	if !ok {
		return fmt.Sprintf("Sorry, I only have %d emails listed. Say a number from 1 to %d.", s.ListLen(), s.ListLen())
	}

	provider, account, err := a.mail.ProviderForID(summary.ID)
	if err != nil {
		return fmt.Sprintf("I couldn't open email %d: %v", position, err)
	}

	msg, err := provider.ReadMessage(ctx, summary.ID)
	if err != nil {
		logger.Warn("read failed", "id", summary.ID, "error", err)
		return fmt.Sprintf("I couldn't open email %d: %v", position, err)
	}

	s.SetRead(position, session.ReadMessage{Message: *msg, Account: account})
	return formatMessage(position, msg)
}

// draftReply builds a pending draft for a previously-read message.
func (a *Assistant) draftReply(ctx context.Context, s *session.Session, position int, hint string, logger *slog.Logger) string {
	rm, ok := s.ReadAt(position)
	if !ok {
		return fmt.Sprintf("I haven't read email %d yet. Say \"read email %d\" first so I know what to reply to.", position, position)
	}

	body, err := a.replies.GenerateReplyBody(ctx,
		rm.From, rm.Subject, textutil.StripHTML(rm.Body), hint)
	if err != nil {
		logger.Warn("reply generation failed", "error", err)
		return fmt.Sprintf("I couldn't write the reply: %v", err)
	}

	d := session.Draft{
		To:          replyRecipient(rm.From),
		Subject:     replySubject(rm.Subject),
		Body:        body,
		Account:     rm.Account,
		ForPosition: position,
	}
	s.SetDraft(d)
	return formatDraftPreview(d)
}

// classify defers to the intent classifier and executes whatever tool
// call it returns.
func (a *Assistant) classify(ctx context.Context, s *session.Session, normalized string, logger *slog.Logger) string {
	decision, err := a.classifier.Classify(ctx, normalized, sessionSummary(s))
	if err != nil {
		logger.Warn("classification failed", "error", err)
		return fmt.Sprintf("I'm having trouble right now: %v", err)
	}

	if !decision.IsCallTool() {
		return decision.Message
	}

	logger.Debug("executing tool", "tool", decision.Tool)
	return a.executeTool(ctx, s, decision, logger)
}

func (a *Assistant) executeTool(ctx context.Context, s *session.Session, d intent.Decision, logger *slog.Logger) string {
	switch d.Tool {
	case intent.ToolListEmails, intent.ToolSearchEmails:
		return a.loadListing(ctx, s, d, logger)
	case intent.ToolReadEmail:
		return a.readByID(ctx, s, paramString(d.Params, "id"), logger)
	case intent.ToolSendEmail:
		return a.sendNew(ctx, d, logger)
	default:
		if d.Message != "" {
			return d.Message
		}
		return "I'm not sure how to do that."
	}
}

// loadListing runs list_emails or search_emails. A non-empty result
// replaces the session listing; an empty one leaves the session alone.
func (a *Assistant) loadListing(ctx context.Context, s *session.Session, d intent.Decision, logger *slog.Logger) string {
	account := paramString(d.Params, "account")
	if account == "" {
		account = mail.AccountPrimary
	}
	provider, err := a.mail.Account(account)
	if err != nil {
		return fmt.Sprintf("I can't check that account: %v", err)
	}

	query := paramString(d.Params, "query")
	maxResults := paramInt(d.Params, "max_results")

	var summaries []mail.Summary
	if d.Tool == intent.ToolSearchEmails {
		summaries, err = provider.SearchMessages(ctx, query, maxResults)
	} else {
		summaries, err = provider.ListMessages(ctx, query, maxResults)
	}
	if err != nil {
		logger.Warn("listing failed", "tool", d.Tool, "error", err)
		return fmt.Sprintf("The mail provider returned an error: %v", err)
	}

	if len(summaries) == 0 {
		return "No emails found."
	}

	s.SetList(summaries, account)
	return formatList(summaries)
}

// readByID handles classifier-initiated reads. The message is cached
// positionally only when its id belongs to the current listing.
func (a *Assistant) readByID(ctx context.Context, s *session.Session, id string, logger *slog.Logger) string {
	if id == "" {
		return "I'm not sure which email to read. Say its number from the list."
	}

	provider, account, err := a.mail.ProviderForID(id)
	if err != nil {
		return fmt.Sprintf("I couldn't open that email: %v", err)
	}

	msg, err := provider.ReadMessage(ctx, id)
	if err != nil {
		logger.Warn("read failed", "id", id, "error", err)
		return fmt.Sprintf("I couldn't open that email: %v", err)
	}

	position := 0
	for i, sum := range s.List() {
		if sum.ID == id {
			position = i + 1
			break
		}
	}
	if position > 0 {
		s.SetRead(position, session.ReadMessage{Message: *msg, Account: account})
		return formatMessage(position, msg)
	}

	return fmt.Sprintf("From: %s\nSubject: %s\n\n%s", msg.From, msg.Subject, strings.TrimSpace(msg.Body))
}

// sendNew handles classifier-initiated sends of fresh messages.
func (a *Assistant) sendNew(ctx context.Context, d intent.Decision, logger *slog.Logger) string {
	to := paramString(d.Params, "to")
	subject := paramString(d.Params, "subject")
	body := paramString(d.Params, "body")
	if to == "" || subject == "" || body == "" {
		return "I need a recipient, a subject, and a body to send an email."
	}

	account := paramString(d.Params, "account")
	provider, err := a.mail.Account(account)
	if err != nil {
		return fmt.Sprintf("I can't send from that account: %v", err)
	}

	if err := provider.SendMessage(ctx, to, subject, body); err != nil {
		logger.Warn("send failed", "to", to, "error", err)
		return fmt.Sprintf("I couldn't send the email: %v", err)
	}

	logger.Info("email sent", "to", to)
	return fmt.Sprintf("Email sent to %s.", to)
}

func (a *Assistant) record(ctx context.Context, userID int64, utterance, response string, logger *slog.Logger) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(ctx, userID, utterance, response); err != nil {
		logger.Warn("history record failed", "error", err)
	}
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func paramInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// shortID returns a compact request correlation id for log lines.
func shortID() string {
	return uuid.NewString()[:8]
}
