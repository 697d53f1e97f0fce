// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat history.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/cmdai/internal/answer"
	"github.com/jeranaias/cmdai/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown next to a chat bubble.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "你"
	case RoleAssistant:
		return "助手"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// For assistant messages, Content holds the raw model reply and Command and
// Explanation hold its parsed form, so renderers never re-parse history.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Parsed reply, assistant messages only.
	Command     string `json:"command,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	// IsError marks assistant messages that report a failed query rather
	// than a model reply. They always render with fallback styling.
	IsError bool `json:"is_error,omitempty"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message from a parsed reply.
func NewAssistantMessage(ans answer.Answer) *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     ans.Raw,
		Command:     ans.Command,
		Explanation: ans.Explanation,
		Timestamp:   time.Now(),
	}
}

// NewErrorMessage creates an assistant message describing a failed query.
func NewErrorMessage(text string) *Message {
	return &Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     text,
		Explanation: text,
		IsError:     true,
		Timestamp:   time.Now(),
	}
}

// HasCommand reports whether this message carries a runnable command.
func (m *Message) HasCommand() bool {
	return m.Command != ""
}

// Preview returns a truncated preview of the message content for logs.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(m.Content, maxRunes)
}
