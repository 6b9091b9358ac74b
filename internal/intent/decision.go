// Package intent maps free-form utterances to structured decisions via
// the LLM, and generates reply bodies. Model output is untrusted text
// that is expected to be JSON; parsing is a fallback boundary, never a
// fatal condition.
package intent

import (
	"encoding/json"
	"strings"
)

// Decision actions.
const (
	ActionCallTool = "call_tool"
	ActionRespond  = "respond"
)

// Tool names the classifier may select.
const (
	ToolListEmails   = "list_emails"
	ToolSearchEmails = "search_emails"
	ToolReadEmail    = "read_email"
	ToolSendEmail    = "send_email"
)

// Decision is the classifier's structured output: either invoke a mail
// tool or answer the user directly.
type Decision struct {
	Action  string         `json:"action"`
	Tool    string         `json:"tool,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Message string         `json:"message,omitempty"`
}

// IsCallTool reports whether the decision requests a tool invocation.
func (d Decision) IsCallTool() bool {
	return d.Action == ActionCallTool && d.Tool != ""
}

// ParseDecision extracts a Decision from raw model output. Code fences
// and surrounding prose are tolerated. Anything that cannot be parsed
// into a well-formed decision becomes a respond decision carrying the
// raw text as a best-effort natural-language answer.
func ParseDecision(raw string) Decision {
	text := strings.TrimSpace(raw)

	candidate := extractJSON(text)
	if candidate != "" {
		var d Decision
		if err := json.Unmarshal([]byte(candidate), &d); err == nil {
			switch {
			case d.IsCallTool():
				return d
			case d.Action == ActionRespond && d.Message != "":
				return d
			}
		}
	}

	return Decision{Action: ActionRespond, Message: text}
}

// extractJSON returns the first balanced {...} object in s, tolerating
// markdown code fences. Empty when no object is present.
func extractJSON(s string) string {
	// Strip a ```json ... ``` fence if present.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
