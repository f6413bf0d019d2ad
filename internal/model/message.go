// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin tags who authored a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	return string(o)
}

// DisplayName returns a human-readable name for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginUser:
		return "You"
	case OriginAssistant:
		return "Assistant"
	default:
		return string(o)
	}
}

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginUser || o == OriginAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// Messages are values; once the store appends one it is never mutated.
type Message struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Origin    Origin    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with the given sequence ID.
func NewMessage(id int, origin Origin, content string) Message {
	return Message{
		ID:        id,
		Content:   content,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(id int, content string) Message {
	return NewMessage(id, OriginUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(id int, content string) Message {
	return NewMessage(id, OriginAssistant, content)
}

// IsUser returns true if the message was authored by the user.
func (m Message) IsUser() bool {
	return m.Origin == OriginUser
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m Message) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}
