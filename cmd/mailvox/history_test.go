package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mailvox/mailvox/internal/history"
)

func TestPrintHistory(t *testing.T) {
	entries := []history.Entry{
		{
			UserID:    42,
			Utterance: "send reply",
			Response:  "Reply sent to bob@example.com.",
			CreatedAt: time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC),
		},
		{
			UserID:    42,
			Utterance: "list my emails",
			Response:  "Found 3 emails.",
			CreatedAt: time.Date(2026, 8, 27, 10, 29, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	printHistory(&buf, 42, entries)
	out := buf.String()

	if !strings.Contains(out, "Last 2 exchanges for user 42") {
		t.Errorf("output missing header: %q", out)
	}
	// Newest first, matching Recent's order.
	sendIdx := strings.Index(out, "send reply")
	listIdx := strings.Index(out, "list my emails")
	if sendIdx < 0 || listIdx < 0 || sendIdx > listIdx {
		t.Errorf("entries out of order: %q", out)
	}
	if !strings.Contains(out, "2026-08-27 10:30") {
		t.Errorf("output missing timestamp: %q", out)
	}
}

func TestPrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, 7, nil)

	if !strings.Contains(buf.String(), "No recorded exchanges for user 7") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintHistoryRoundTrip(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Record(ctx, 42, "read email 2", "Email 2\nFrom: alice"); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Recent(ctx, 42, historyLimit)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printHistory(&buf, 42, entries)
	if !strings.Contains(buf.String(), "read email 2") {
		t.Errorf("output = %q", buf.String())
	}
}
