package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mailvox/mailvox/internal/llm"
)

// toolCatalog describes the available mail tools to the model. Kept as
// one block so the prompt and the executor stay in sync by inspection.
const toolCatalog = `Available tools:
- list_emails: list recent inbox messages. Params: {"query": string (optional Gmail-style filter), "max_results": int (default 10), "account": "primary"|"secondary" (default primary)}
- search_emails: search messages. Params: {"query": string (required), "max_results": int (default 10), "account": "primary"|"secondary"}
- read_email: read one message in full. Params: {"id": string (required, a message id from a previous listing)}
- send_email: send a new message. Params: {"to": string, "subject": string, "body": string, "account": "primary"|"secondary"}`

const classifierSystemPrompt = `You are a voice-driven email assistant. Decide whether the user's request needs a mail tool or a direct answer.

%s

Respond with ONLY a JSON object, no other text:
{"action": "call_tool", "tool": "<tool name>", "params": {...}, "message": "<short status line to show while working>"}
or
{"action": "respond", "message": "<your answer>"}

Current conversation state:
%s`

// classifierTemperature keeps tool selection near-deterministic.
const classifierTemperature = 0.3

// Classifier turns utterances into Decisions using an LLM.
type Classifier struct {
	llm    llm.Client
	logger *slog.Logger
}

// NewClassifier creates a classifier over the given LLM client.
func NewClassifier(client llm.Client, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: client, logger: logger}
}

// Classify asks the model for a decision. sessionSummary is a short
// plain-text description of the user's current state (loaded emails,
// pending draft) so the model can resolve references. A transport
// error is returned as-is; malformed model output is not an error and
// degrades to a respond decision.
func (c *Classifier) Classify(ctx context.Context, utterance, sessionSummary string) (Decision, error) {
	if sessionSummary == "" {
		sessionSummary = "No emails loaded."
	}

	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(classifierSystemPrompt, toolCatalog, sessionSummary)},
		{Role: "user", Content: utterance},
	}

	raw, err := c.llm.Complete(ctx, messages, llm.Options{Temperature: classifierTemperature})
	if err != nil {
		return Decision{}, fmt.Errorf("classify intent: %w", err)
	}

	d := ParseDecision(raw)
	c.logger.Debug("intent classified",
		"action", d.Action,
		"tool", d.Tool,
		"raw_len", len(raw))
	return d, nil
}

// ToolNames returns the catalog's tool names, for logging and help text.
func ToolNames() []string {
	return []string{ToolListEmails, ToolSearchEmails, ToolReadEmail, ToolSendEmail}
}

// DescribeTools returns the human-readable tool catalog.
func DescribeTools() string {
	return strings.TrimPrefix(toolCatalog, "Available tools:\n")
}
