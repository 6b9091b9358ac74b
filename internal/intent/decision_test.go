package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Decision
	}{
		{
			name: "call tool",
			raw:  `{"action": "call_tool", "tool": "list_emails", "params": {"max_results": 5}, "message": "Checking your inbox..."}`,
			want: Decision{
				Action:  ActionCallTool,
				Tool:    ToolListEmails,
				Params:  map[string]any{"max_results": float64(5)},
				Message: "Checking your inbox...",
			},
		},
		{
			name: "respond",
			raw:  `{"action": "respond", "message": "You have no new mail."}`,
			want: Decision{Action: ActionRespond, Message: "You have no new mail."},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"action\": \"call_tool\", \"tool\": \"search_emails\", \"params\": {\"query\": \"from:alice\"}}\n```",
			want: Decision{
				Action: ActionCallTool,
				Tool:   ToolSearchEmails,
				Params: map[string]any{"query": "from:alice"},
			},
		},
		{
			name: "json embedded in prose",
			raw:  `Sure, here is the decision: {"action": "respond", "message": "Done."} Hope that helps!`,
			want: Decision{Action: ActionRespond, Message: "Done."},
		},
		{
			name: "plain text falls back to respond",
			raw:  "I can help you manage your inbox.",
			want: Decision{Action: ActionRespond, Message: "I can help you manage your inbox."},
		},
		{
			name: "malformed json falls back to respond",
			raw:  `{"action": "call_tool", "tool":`,
			want: Decision{Action: ActionRespond, Message: `{"action": "call_tool", "tool":`},
		},
		{
			name: "call_tool without tool name falls back",
			raw:  `{"action": "call_tool", "message": "hmm"}`,
			want: Decision{Action: ActionRespond, Message: `{"action": "call_tool", "message": "hmm"}`},
		},
		{
			name: "braces inside strings",
			raw:  `{"action": "respond", "message": "use {curly} braces"}`,
			want: Decision{Action: ActionRespond, Message: "use {curly} braces"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDecision(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDecision() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsCallTool(t *testing.T) {
	if (Decision{Action: ActionCallTool}).IsCallTool() {
		t.Error("call_tool with empty tool name should not count")
	}
	if !(Decision{Action: ActionCallTool, Tool: ToolReadEmail}).IsCallTool() {
		t.Error("call_tool with tool name should count")
	}
	if (Decision{Action: ActionRespond, Message: "hi"}).IsCallTool() {
		t.Error("respond should not count")
	}
}
