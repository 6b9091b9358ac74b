package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("response_format = %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "voice.ogg" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "fake-ogg-bytes" {
			t.Errorf("audio bytes = %q", data)
		}

		w.Write([]byte("check my email\n"))
	}))
	defer srv.Close()

	tr := NewGroqTranscriber(srv.URL, "test-key", "")
	got, err := tr.Transcribe(context.Background(), "voice.ogg", []byte("fake-ogg-bytes"))
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if got != "check my email" {
		t.Errorf("Transcribe() = %q, want %q", got, "check my email")
	}
}

func TestTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad audio"}}`))
	}))
	defer srv.Close()

	tr := NewGroqTranscriber(srv.URL, "k", "m")
	_, err := tr.Transcribe(context.Background(), "voice.ogg", []byte("x"))
	if err == nil {
		t.Fatal("Transcribe() should fail on non-200 status")
	}
}
