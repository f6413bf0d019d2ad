// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// ORIGIN TESTS
// =============================================================================

func TestOrigin_DisplayName(t *testing.T) {
	tests := []struct {
		origin Origin
		want   string
	}{
		{OriginUser, "You"},
		{OriginAssistant, "Assistant"},
		{Origin("system"), "system"},
	}

	for _, tc := range tests {
		if got := tc.origin.DisplayName(); got != tc.want {
			t.Errorf("%q.DisplayName() = %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestOrigin_Valid(t *testing.T) {
	if !OriginUser.Valid() || !OriginAssistant.Valid() {
		t.Error("known origins should be valid")
	}
	if Origin("tool").Valid() {
		t.Error("unknown origin should not be valid")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage(3, "  Hello  ")

	if msg.ID != 3 {
		t.Errorf("ID = %d, want 3", msg.ID)
	}
	if msg.Content != "  Hello  " {
		t.Errorf("Content = %q, content must be kept verbatim", msg.Content)
	}
	if !msg.IsUser() {
		t.Error("expected user message")
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	reply := NewAssistantMessage(4, "Hi")
	if reply.IsUser() || reply.Origin != OriginAssistant {
		t.Errorf("Origin = %q, want assistant", reply.Origin)
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
		{"zero limit", "hello", 0, ""},
		{"negative limit", "hello", -1, ""},
		{"unicode", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := Message{Content: tc.content}
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestMessage_EstimateTokens(t *testing.T) {
	if got := (Message{}).EstimateTokens(); got != 0 {
		t.Errorf("empty EstimateTokens() = %d, want 0", got)
	}
	if got := (Message{Content: "12345678"}).EstimateTokens(); got != 2 {
		t.Errorf("EstimateTokens() = %d, want 2", got)
	}
	if !(Message{}).IsEmpty() {
		t.Error("zero message should be empty")
	}
}

func TestMessage_JSON(t *testing.T) {
	data, err := json.Marshal(NewAssistantMessage(1, "Hi"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if fields["origin"] != "assistant" {
		t.Errorf("origin = %v, want assistant", fields["origin"])
	}
	if fields["id"] != float64(1) {
		t.Errorf("id = %v, want 1", fields["id"])
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestDefaultHistory(t *testing.T) {
	entries := DefaultHistory()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i, e := range entries {
		wantID := i + 1
		if e.ID != wantID {
			t.Errorf("entries[%d].ID = %d, want %d", i, e.ID, wantID)
		}
		if want := "Chat " + string(rune('0'+wantID)); e.Title != want {
			t.Errorf("entries[%d].Title = %q, want %q", i, e.Title, want)
		}
	}
}
