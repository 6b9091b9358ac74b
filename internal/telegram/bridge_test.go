package telegram

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

// fakeAPI records outbound calls and serves canned file data.
type fakeAPI struct {
	sent    []string
	chats   []int64
	actions []string

	fileData map[string][]byte
}

func (f *fakeAPI) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.chats = append(f.chats, chatID)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeAPI) SendChatAction(ctx context.Context, chatID int64, action string) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAPI) GetFile(ctx context.Context, fileID string) (File, error) {
	return File{FileID: fileID, FilePath: "voice/" + fileID + ".oga"}, nil
}

func (f *fakeAPI) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	return f.fileData[filePath], nil
}

type fakeHandler struct {
	utterances []string
	response   string
}

func (f *fakeHandler) Handle(ctx context.Context, userID int64, utterance string) string {
	f.utterances = append(f.utterances, utterance)
	return f.response
}

type fakeTranscriber struct {
	text string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return f.text, nil
}

func textUpdate(userID int64, text string) Update {
	return Update{
		UpdateID: 1,
		Message: &Message{
			From: &User{ID: userID},
			Chat: Chat{ID: userID},
			Text: text,
		},
	}
}

func TestProcessUpdateTextFlow(t *testing.T) {
	api := &fakeAPI{}
	handler := &fakeHandler{response: "Found 3 emails."}
	b := NewBridge(BridgeConfig{Client: api, Handler: handler})

	b.processUpdate(context.Background(), textUpdate(42, "list my emails"))

	if len(handler.utterances) != 1 || handler.utterances[0] != "list my emails" {
		t.Errorf("utterances = %v", handler.utterances)
	}
	if len(api.sent) != 1 || api.sent[0] != "Found 3 emails." {
		t.Errorf("sent = %v", api.sent)
	}
	if len(api.actions) != 1 || api.actions[0] != "typing" {
		t.Errorf("actions = %v", api.actions)
	}
}

func TestProcessUpdateUnauthorized(t *testing.T) {
	api := &fakeAPI{}
	handler := &fakeHandler{response: "ok"}
	b := NewBridge(BridgeConfig{
		Client:         api,
		Handler:        handler,
		AllowedUserIDs: []int64{7},
	})

	b.processUpdate(context.Background(), textUpdate(42, "hello"))
	if len(handler.utterances) != 0 || len(api.sent) != 0 {
		t.Error("unauthorized users must be ignored entirely")
	}

	b.processUpdate(context.Background(), textUpdate(7, "hello"))
	if len(handler.utterances) != 1 {
		t.Error("allowed user should be handled")
	}
}

func TestProcessUpdateRateLimit(t *testing.T) {
	api := &fakeAPI{}
	handler := &fakeHandler{response: "ok"}
	b := NewBridge(BridgeConfig{Client: api, Handler: handler, RateLimit: 2})

	for i := 0; i < 5; i++ {
		b.processUpdate(context.Background(), textUpdate(42, "hello"))
	}
	if len(handler.utterances) != 2 {
		t.Errorf("handled %d messages, want 2 within the window", len(handler.utterances))
	}

	// A different sender has an independent budget.
	b.processUpdate(context.Background(), textUpdate(43, "hello"))
	if len(handler.utterances) != 3 {
		t.Error("rate limit should be per sender")
	}
}

func TestProcessUpdateCommands(t *testing.T) {
	api := &fakeAPI{}
	handler := &fakeHandler{response: "should not be called"}
	b := NewBridge(BridgeConfig{Client: api, Handler: handler})

	b.processUpdate(context.Background(), textUpdate(42, "/start"))
	b.processUpdate(context.Background(), textUpdate(42, "/help"))

	if len(handler.utterances) != 0 {
		t.Error("commands must not reach the assistant")
	}
	if len(api.sent) != 2 {
		t.Fatalf("sent = %v", api.sent)
	}
	if !strings.Contains(api.sent[0], "mail assistant") {
		t.Errorf("/start reply = %q", api.sent[0])
	}
}

func TestProcessUpdateVoice(t *testing.T) {
	api := &fakeAPI{fileData: map[string][]byte{"voice/v1.oga": []byte("audio")}}
	handler := &fakeHandler{response: "Email 2\n..."}
	b := NewBridge(BridgeConfig{
		Client:      api,
		Handler:     handler,
		Transcriber: &fakeTranscriber{text: "read email two"},
	})

	b.processUpdate(context.Background(), Update{
		UpdateID: 1,
		Message: &Message{
			From:  &User{ID: 42},
			Chat:  Chat{ID: 42},
			Voice: &Voice{FileID: "v1"},
		},
	})

	if len(handler.utterances) != 1 || handler.utterances[0] != "read email two" {
		t.Errorf("utterances = %v", handler.utterances)
	}
}

func TestProcessUpdateVoiceWithoutTranscriber(t *testing.T) {
	api := &fakeAPI{}
	handler := &fakeHandler{}
	b := NewBridge(BridgeConfig{Client: api, Handler: handler})

	b.processUpdate(context.Background(), Update{
		UpdateID: 1,
		Message: &Message{
			From:  &User{ID: 42},
			Chat:  Chat{ID: 42},
			Voice: &Voice{FileID: "v1"},
		},
	})

	if len(handler.utterances) != 0 {
		t.Error("voice without a transcriber must not reach the assistant")
	}
	if len(api.sent) != 1 || !strings.Contains(api.sent[0], "voice note") {
		t.Errorf("sent = %v", api.sent)
	}
}

func TestSendTruncatesLongReplies(t *testing.T) {
	api := &fakeAPI{}
	b := NewBridge(BridgeConfig{Client: api, Handler: &fakeHandler{}})

	b.send(context.Background(), 42, strings.Repeat("x", maxMessageLen+100))

	if len(api.sent) != 1 {
		t.Fatal("expected one send")
	}
	if got := utf8.RuneCountInString(api.sent[0]); got != maxMessageLen {
		t.Errorf("sent length = %d runes, want %d", got, maxMessageLen)
	}
	if !strings.HasSuffix(api.sent[0], "...") {
		t.Error("truncated message should end with ellipsis")
	}
}

func TestSendTruncatesOnRuneBoundaries(t *testing.T) {
	api := &fakeAPI{}
	b := NewBridge(BridgeConfig{Client: api, Handler: &fakeHandler{}})

	// Multibyte text long enough to force truncation; a byte-index slice
	// would cut a rune in half here.
	b.send(context.Background(), 42, strings.Repeat("é", maxMessageLen+100))

	if len(api.sent) != 1 {
		t.Fatal("expected one send")
	}
	if !utf8.ValidString(api.sent[0]) {
		t.Error("truncated message is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(api.sent[0]); got != maxMessageLen {
		t.Errorf("sent length = %d runes, want %d", got, maxMessageLen)
	}
	if !strings.HasSuffix(api.sent[0], "...") {
		t.Error("truncated message should end with ellipsis")
	}
}
