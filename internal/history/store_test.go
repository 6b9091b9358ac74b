package history

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"list my emails", "read email 2", "send reply"} {
		if err := s.Record(ctx, 42, u, "ok: "+u); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}
	if err := s.Record(ctx, 7, "other user", "ok"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(ctx, 42, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Utterance != "send reply" || entries[2].Utterance != "list my emails" {
		t.Errorf("order wrong: %q ... %q", entries[0].Utterance, entries[2].Utterance)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated")
	}
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, 1, "msg", "resp"); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.Recent(context.Background(), 99, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries for unknown user", len(entries))
	}
}
