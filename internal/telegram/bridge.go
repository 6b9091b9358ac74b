package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mailvox/mailvox/internal/textutil"
)

// API is the Bot API surface the bridge needs. The real implementation
// is *Client.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	GetFile(ctx context.Context, fileID string) (File, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// Handler processes one utterance and returns the response text. The
// real implementation is *assistant.Assistant.
type Handler interface {
	Handle(ctx context.Context, userID int64, utterance string) string
}

// Transcriber converts voice-note audio to text. Nil disables voice
// messages.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// handleTimeout bounds processing of one inbound message (mail
// operations + LLM calls + response send).
const handleTimeout = 2 * time.Minute

// rateWindow is the sliding window for per-sender rate limiting.
const rateWindow = time.Minute

// cleanupInterval controls how often stale rate-limit entries are
// evicted.
const cleanupInterval = 10 * time.Minute

// maxMessageLen is Telegram's hard limit on message text, in
// characters, not bytes.
const maxMessageLen = 4096

// pollBackoff is the pause after a failed getUpdates call.
const pollBackoff = 5 * time.Second

const startText = `Hi! I'm your mail assistant. Ask me things like:
- "list my emails"
- "read email two"
- "draft a reply saying I'll be there"
- "send reply" / "cancel"

You can also send a voice note and I'll transcribe it.`

const helpText = `I manage your mail accounts conversationally.

List and search: "show my emails", "search for invoices from acme"
Read: "read email 2", "read the first one"
Reply: "draft a reply saying thanks" then "send reply" or "cancel"`

// BridgeConfig holds the dependencies for a Bridge.
type BridgeConfig struct {
	Client      API
	Handler     Handler
	Transcriber Transcriber
	Logger      *slog.Logger

	// AllowedUserIDs restricts who may talk to the bot. Empty allows
	// everyone.
	AllowedUserIDs []int64

	// RateLimit is messages per sender per minute; 0 = unlimited.
	RateLimit int

	// PollTimeoutSec is the getUpdates long-poll timeout.
	PollTimeoutSec int
}

// Bridge receives Telegram updates, routes utterances through the
// assistant, and sends responses back to the chat.
type Bridge struct {
	client      API
	handler     Handler
	transcriber Transcriber
	logger      *slog.Logger
	allowed     map[int64]bool
	rateLimit   int
	pollTimeout int

	mu          sync.Mutex
	senderTimes map[int64][]time.Time
	lastCleanup time.Time
}

// NewBridge creates a Telegram message bridge.
func NewBridge(cfg BridgeConfig) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollTimeout := cfg.PollTimeoutSec
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	var allowed map[int64]bool
	if len(cfg.AllowedUserIDs) > 0 {
		allowed = make(map[int64]bool, len(cfg.AllowedUserIDs))
		for _, id := range cfg.AllowedUserIDs {
			allowed[id] = true
		}
	}

	return &Bridge{
		client:      cfg.Client,
		handler:     cfg.Handler,
		transcriber: cfg.Transcriber,
		logger:      logger,
		allowed:     allowed,
		rateLimit:   cfg.RateLimit,
		pollTimeout: pollTimeout,
		senderTimes: make(map[int64][]time.Time),
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	b.logger.Info("telegram bridge started")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram bridge shutting down")
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("telegram bridge shutting down")
				return
			}
			b.logger.Warn("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.processUpdate(ctx, u)
		}
	}
}

func (b *Bridge) processUpdate(ctx context.Context, u Update) {
	msg := u.Message
	if msg == nil || msg.From == nil {
		return
	}
	sender := msg.From.ID
	chatID := msg.Chat.ID

	if b.allowed != nil && !b.allowed[sender] {
		b.logger.Warn("telegram message from unauthorized user", "sender", sender)
		return
	}

	if !b.allowSender(sender) {
		b.logger.Warn("telegram message rate-limited", "sender", sender)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	text := msg.Text
	if msg.Voice != nil {
		var err error
		text, err = b.transcribeVoice(ctx, msg.Voice)
		if err != nil {
			b.logger.Warn("voice transcription failed", "sender", sender, "error", err)
			b.send(ctx, chatID, "Sorry, I couldn't understand that voice note.")
			return
		}
		b.logger.Info("voice note transcribed", "sender", sender, "chars", len(text))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	switch text {
	case "/start":
		b.send(ctx, chatID, startText)
		return
	case "/help":
		b.send(ctx, chatID, helpText)
		return
	}

	b.logger.Info("telegram message received", "sender", sender, "message_len", len(text))

	if err := b.client.SendChatAction(ctx, chatID, "typing"); err != nil {
		b.logger.Debug("typing indicator failed", "error", err)
	}

	response := b.handler.Handle(ctx, sender, text)
	if response == "" {
		return
	}

	b.send(ctx, chatID, response)
}

// transcribeVoice downloads a voice note and runs it through the
// transcriber.
func (b *Bridge) transcribeVoice(ctx context.Context, voice *Voice) (string, error) {
	if b.transcriber == nil {
		return "", fmt.Errorf("voice messages are not enabled")
	}

	f, err := b.client.GetFile(ctx, voice.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve voice file: %w", err)
	}

	audio, err := b.client.DownloadFile(ctx, f.FilePath)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}

	filename := path.Base(f.FilePath)
	if filename == "." || filename == "/" {
		filename = "voice.oga"
	}

	return b.transcriber.Transcribe(ctx, filename, audio)
}

func (b *Bridge) send(ctx context.Context, chatID int64, text string) {
	// Truncate on rune boundaries; slicing bytes can split a multibyte
	// character and the API rejects invalid UTF-8 outright.
	if utf8.RuneCountInString(text) > maxMessageLen {
		text = textutil.Truncate(text, maxMessageLen-3) + "..."
	}
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("telegram reply send failed", "chat", chatID, "error", err)
	}
}

// allowSender checks whether the sender is within the per-minute rate
// limit.
func (b *Bridge) allowSender(sender int64) bool {
	if b.rateLimit <= 0 {
		return true
	}

	now := time.Now()
	cutoff := now.Add(-rateWindow)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.maybeCleanupLocked(now)

	timestamps := b.senderTimes[sender]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= b.rateLimit {
		b.senderTimes[sender] = valid
		return false
	}

	b.senderTimes[sender] = append(valid, now)
	return true
}

// maybeCleanupLocked evicts stale sender entries. Must be called with
// b.mu held.
func (b *Bridge) maybeCleanupLocked(now time.Time) {
	if now.Sub(b.lastCleanup) < cleanupInterval {
		return
	}
	b.lastCleanup = now

	cutoff := now.Add(-2 * rateWindow)
	for sender, timestamps := range b.senderTimes {
		if len(timestamps) == 0 || timestamps[len(timestamps)-1].Before(cutoff) {
			delete(b.senderTimes, sender)
		}
	}
}
