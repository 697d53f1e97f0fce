// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat history.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the in-memory chat history of one web session.
//
// History is display state only. Queries sent to the model never include
// prior messages, and nothing here is persisted across restarts.
type Conversation struct {
	ID        string     `json:"id"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		Messages:  make([]*Message, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the end of the history.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Last returns the most recent message, or nil for an empty conversation.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Clear drops all messages but keeps the conversation identity.
func (c *Conversation) Clear() {
	c.Messages = c.Messages[:0]
	c.UpdatedAt = time.Now()
}
