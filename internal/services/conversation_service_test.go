package services

import (
	"strings"
	"testing"
	"time"

	"healthmate/internal/models"
)

func testMessage(role, content string) models.Message {
	return models.Message{
		Role:    role,
		Content: content,
		Time:    time.Now().Format(time.RFC3339),
	}
}

func TestHistoryEmptyAndIdempotent(t *testing.T) {
	convos := NewConversationService(newTestDB(t))

	first, err := convos.History("new-user")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(first) != 0 {
		t.Errorf("expected empty history, got %d messages", len(first))
	}

	// Loading again must not create anything
	second, err := convos.History("new-user")
	if err != nil {
		t.Fatalf("second History failed: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("expected history to stay empty, got %d messages", len(second))
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	convos := NewConversationService(newTestDB(t))

	for _, content := range []string{"first", "second", "third"} {
		if err := convos.Append("u1", testMessage("user", content)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	history, err := convos.History("u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, want := range []string{"first", "second", "third"} {
		if history[i].Content != want {
			t.Errorf("message %d: expected %q, got %q", i, want, history[i].Content)
		}
	}
}

func TestAppendFillsTimestamp(t *testing.T) {
	convos := NewConversationService(newTestDB(t))

	if err := convos.Append("u1", models.Message{Role: "user", Content: "no time set"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	history, err := convos.History("u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if history[0].Time == "" {
		t.Error("expected timestamp to be filled in")
	}
}

func TestDeleteConversation(t *testing.T) {
	convos := NewConversationService(newTestDB(t))

	if err := convos.Append("u1", testMessage("user", "hello")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := convos.Delete("u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	history, err := convos.History("u1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history after delete, got %d", len(history))
	}

	// Deleting an already-empty conversation succeeds
	if err := convos.Delete("u1"); err != nil {
		t.Errorf("Delete of empty conversation failed: %v", err)
	}
}

func TestRenderHistory(t *testing.T) {
	empty := RenderHistory(nil)
	if empty != "no conversation started yet." {
		t.Errorf("unexpected empty rendering: %q", empty)
	}

	rendered := RenderHistory([]models.Message{
		{Role: "user", Content: "hello", Time: "2026-01-01T10:00:00Z"},
		{Role: "ai", Content: "hi there", Time: "2026-01-01T10:00:05Z"},
	})

	if !strings.HasPrefix(rendered, "no conversation started yet.") {
		t.Errorf("expected header prefix, got %q", rendered)
	}
	for _, want := range []string{"---------", " role:user", " content:hello", " role:ai", " content:hi there", " time:2026-01-01T10:00:05Z"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("expected rendering to contain %q, got %q", want, rendered)
		}
	}
}
