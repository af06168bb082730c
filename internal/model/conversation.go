// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one in-memory chat session: the ordered message list and
// the history index over its user messages.
//
// Conversation is not safe for concurrent use; callers that share one across
// goroutines must guard it themselves.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	messages []*Message
	history  []HistoryItem
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		CreatedAt: now,
		UpdatedAt: now,
		messages:  make([]*Message, 0),
		history:   make([]HistoryItem, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUserMessage appends a user message together with its history entry.
func (c *Conversation) AddUserMessage(content string, images []ImageData) *Message {
	msg := NewUserMessage(content, images)
	c.messages = append(c.messages, msg)
	c.history = append(c.history, NewHistoryItem(msg))
	c.UpdatedAt = time.Now()
	return msg
}

// AddAssistantMessage appends an assistant reply.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.messages = append(c.messages, msg)
	c.UpdatedAt = time.Now()
	return msg
}

// Reset discards all messages and history and starts a new session ID.
func (c *Conversation) Reset() {
	c.ID = generateConversationID()
	c.messages = make([]*Message, 0)
	c.history = make([]HistoryItem, 0)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
}

// Messages returns a copy of the message list.
func (c *Conversation) Messages() []*Message {
	out := make([]*Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// History returns a copy of the history index, oldest first.
func (c *Conversation) History() []HistoryItem {
	out := make([]HistoryItem, len(c.history))
	copy(out, c.history)
	return out
}

// IndexOf returns the position of the message with the given ID, or -1.
func (c *Conversation) IndexOf(id string) int {
	for i, msg := range c.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// MessageCount returns the number of messages in the conversation.
func (c *Conversation) MessageCount() int {
	return len(c.messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

func generateConversationID() string {
	return "conv_" + uuid.NewString()
}
