package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mailvox/mailvox/internal/llm"
	"github.com/mailvox/mailvox/internal/textutil"
)

// maxOriginalChars caps how much of the original body goes into the
// reply prompt; enough for context without burning tokens.
const maxOriginalChars = 500

const replySystemPrompt = `You write email replies. Keep them professional, concise, and friendly. Output ONLY the reply body text — no subject line, no commentary. Sign off with "Best regards".`

const (
	replyTemperature = 0.7
	replyMaxTokens   = 500
)

// ReplyWriter generates reply bodies for drafts.
type ReplyWriter struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewReplyWriter creates a reply writer over the given LLM client.
func NewReplyWriter(client llm.Client, logger *slog.Logger) *ReplyWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplyWriter{llm: client, logger: logger}
}

// GenerateReplyBody produces plausible reply text for the given
// original message. hint is optional free-text guidance from the user
// ("say I'll be there") and is honored verbatim when present.
func (w *ReplyWriter) GenerateReplyBody(ctx context.Context, from, subject, body, hint string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a reply to this email.\n\nFrom: %s\nSubject: %s\n\n%s",
		from, subject, textutil.Truncate(body, maxOriginalChars))
	if hint != "" {
		fmt.Fprintf(&sb, "\n\nThe reply should convey: %s", hint)
	}

	messages := []llm.Message{
		{Role: "system", Content: replySystemPrompt},
		{Role: "user", Content: sb.String()},
	}

	reply, err := w.llm.Complete(ctx, messages, llm.Options{
		Temperature: replyTemperature,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply body: %w", err)
	}

	w.logger.Debug("reply body generated", "chars", len(reply), "hint", hint != "")
	return strings.TrimSpace(reply), nil
}
