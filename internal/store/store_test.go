package store

import (
	"path/filepath"
	"testing"
)

func TestTokenFileRoundTrip(t *testing.T) {
	tf := NewTokenFile(t.TempDir())

	tok, err := tf.Read()
	if err != nil {
		t.Fatalf("Read on empty store failed: %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty token, got %q", tok)
	}

	if err := tf.Write("tok1"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	tok, err = tf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tok != "tok1" {
		t.Errorf("token: got %q, want tok1", tok)
	}
}

func TestTokenFileClearIsIdempotent(t *testing.T) {
	tf := NewTokenFile(t.TempDir())
	if err := tf.Write("tok1"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := tf.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := tf.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}

	tok, err := tf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tok != "" {
		t.Errorf("token after clear: got %q, want empty", tok)
	}
}

func TestHistoryMessagesKeepAppendOrder(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer h.Close()

	conv, err := h.CreateConversation("standard")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	entries := []struct {
		sender, content string
		isError         bool
	}{
		{"user", "hello", false},
		{"agent", "hi", false},
		{"user", "are you there", false},
		{"agent", "Something went wrong. Please try again.", true},
	}
	for _, e := range entries {
		if err := h.AddMessage(conv.ID, e.sender, e.content, e.isError); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	msgs, err := h.Messages(conv.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != len(entries) {
		t.Fatalf("message count: got %d, want %d", len(msgs), len(entries))
	}
	for i, e := range entries {
		if msgs[i].Sender != e.sender || msgs[i].Content != e.content || msgs[i].IsError != e.isError {
			t.Errorf("message %d: got %+v, want %+v", i, msgs[i], e)
		}
	}
}

func TestHistoryListConversations(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory failed: %v", err)
	}
	defer h.Close()

	first, err := h.CreateConversation("standard")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.CreateConversation("extended"); err != nil {
		t.Fatal(err)
	}
	if err := h.AddMessage(first.ID, "user", "hello", false); err != nil {
		t.Fatal(err)
	}

	sums, err := h.ListConversations(10)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("summary count: got %d, want 2", len(sums))
	}
	// Most recently touched conversation first.
	if sums[0].ID != first.ID {
		t.Errorf("expected conversation %s first, got %s", first.ID, sums[0].ID)
	}
	if sums[0].Messages != 1 {
		t.Errorf("message count in summary: got %d, want 1", sums[0].Messages)
	}
}
