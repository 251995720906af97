package adapter

import (
	"strings"
	"testing"

	"chatrelay/internal/core"
)

func TestValidateMessagesRejectsNonArray(t *testing.T) {
	cases := []struct {
		name  string
		input any
	}{
		{"string", "not-an-array"},
		{"number", 42},
		{"nil", nil},
		{"object", map[string]any{"role": "user"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validateMessages(tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid messages") {
				t.Errorf("error must mention invalid messages, got %q", err.Error())
			}
		})
	}
}

func TestValidateMessagesRejectsEmptyList(t *testing.T) {
	_, err := validateMessages([]any{})
	if err == nil || !strings.Contains(err.Error(), "invalid messages") {
		t.Errorf("empty list must fail validation, got %v", err)
	}
}

func TestValidateMessagesRejectsBadElements(t *testing.T) {
	cases := []struct {
		name  string
		input []any
	}{
		{"non-object element", []any{"hello"}},
		{"unknown role", []any{map[string]any{"role": "robot", "content": "hi"}}},
		{"missing role", []any{map[string]any{"content": "hi"}}},
		{"non-string content", []any{map[string]any{"role": "user", "content": 5}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validateMessages(tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "invalid messages") {
				t.Errorf("error must mention invalid messages, got %q", err.Error())
			}
		})
	}
}

func TestValidateMessagesAcceptsGenericShape(t *testing.T) {
	msgs, err := validateMessages([]any{
		map[string]any{"role": "System", "content": "be brief"},
		map[string]any{"role": "user", "content": "hi"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != core.RoleSystem {
		t.Errorf("role must be lowercased, got %q", msgs[0].Role)
	}
}

func TestValidateMessagesAcceptsTyped(t *testing.T) {
	msgs, err := validateMessages([]core.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "tool", Content: "{}"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
}

func TestEnsureSystemMessagePrepends(t *testing.T) {
	msgs := []core.Message{{Role: core.RoleUser, Content: "hi"}}

	out := ensureSystemMessage(msgs, "be helpful")

	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	if out[0].Role != core.RoleSystem || out[0].Content != "be helpful" {
		t.Errorf("first message = %+v, want system prompt", out[0])
	}
}

func TestEnsureSystemMessageLeavesExisting(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleSystem, Content: "custom"},
	}

	out := ensureSystemMessage(msgs, "default")

	// A system message anywhere in the sequence suppresses injection, even
	// when it is not the first element.
	if len(out) != 2 {
		t.Fatalf("expected sequence untouched, got %d messages", len(out))
	}
	if out[0].Role != core.RoleUser {
		t.Errorf("order must be preserved, got %+v", out)
	}
}

func TestEnsureSystemMessageEmptyPrompt(t *testing.T) {
	msgs := []core.Message{{Role: core.RoleUser, Content: "hi"}}

	out := ensureSystemMessage(msgs, "")

	if len(out) != 1 {
		t.Errorf("empty prompt must inject nothing, got %d messages", len(out))
	}
}
