package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGroqComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello back"}},
			},
		})
	}))
	defer srv.Close()

	client := NewGroqClient(srv.URL, "test-key", "test-model")
	got, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, Options{Temperature: 0.3, MaxTokens: 100})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if got != "hello back" {
		t.Errorf("Complete() = %q, want %q", got, "hello back")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q, want default from client", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages not forwarded: %+v", gotReq.Messages)
	}
}

func TestGroqCompleteModelOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "other-model" {
			t.Errorf("model = %q, want other-model", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	client := NewGroqClient(srv.URL, "k", "default-model")
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, Options{Model: "other-model"}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
}

func TestGroqCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := NewGroqClient(srv.URL, "k", "m")
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, Options{})
	if err == nil {
		t.Fatal("Complete() should fail on non-200 status")
	}
}

func TestGroqCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewGroqClient(srv.URL, "k", "m")
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, Options{})
	if err == nil {
		t.Fatal("Complete() should fail when no choices are returned")
	}
}

func TestGroqPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewGroqClient(srv.URL, "k", "m")
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
