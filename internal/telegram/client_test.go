package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("TESTTOKEN", nil)
	c.baseURL = srv.URL
	return c
}

func TestGetUpdates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTESTTOKEN/getUpdates" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("offset"); got != "100" {
			t.Errorf("offset = %s", got)
		}
		w.Write([]byte(`{"ok":true,"result":[{"update_id":100,"message":{"message_id":1,"from":{"id":42},"chat":{"id":42},"text":"hello"}}]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 100, 30)
	if err != nil {
		t.Fatalf("GetUpdates() error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("got %d updates", len(updates))
	}
	u := updates[0]
	if u.UpdateID != 100 || u.Message == nil || u.Message.Text != "hello" || u.Message.From.ID != 42 {
		t.Errorf("update = %+v", u)
	}
}

func TestSendMessage(t *testing.T) {
	var gotChat, gotText string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := c.SendMessage(context.Background(), 42, "hi there"); err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if gotChat != "42" || gotText != "hi there" {
		t.Errorf("sent chat=%s text=%s", gotChat, gotText)
	}
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Unauthorized","error_code":401}`))
	})

	err := c.SendMessage(context.Background(), 42, "hi")
	if err == nil {
		t.Fatal("expected error for ok=false")
	}
}

func TestGetFileAndDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTESTTOKEN/getFile":
			w.Write([]byte(`{"ok":true,"result":{"file_id":"abc","file_path":"voice/file_1.oga"}}`))
		case "/file/botTESTTOKEN/voice/file_1.oga":
			w.Write([]byte("OGGDATA"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	f, err := c.GetFile(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetFile() error: %v", err)
	}
	if f.FilePath != "voice/file_1.oga" {
		t.Errorf("FilePath = %s", f.FilePath)
	}

	data, err := c.DownloadFile(context.Background(), f.FilePath)
	if err != nil {
		t.Fatalf("DownloadFile() error: %v", err)
	}
	if string(data) != "OGGDATA" {
		t.Errorf("data = %q", data)
	}
}
