// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
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

// DisplayName returns the label shown next to a message bubble.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Anda"
	case RoleAssistant:
		return "Asisten"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// ImageData is an inline attachment carried with a user message.
// Data holds the base64-encoded payload.
type ImageData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Message represents a single message in a conversation.
// Messages are not modified once appended to a Conversation.
type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Images    []ImageData `json:"images,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewUserMessage creates a user message. The images slice is copied.
func NewUserMessage(content string, images []ImageData) *Message {
	var imgs []ImageData
	if len(images) > 0 {
		imgs = make([]ImageData, len(images))
		copy(imgs, images)
	}
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		Images:    imgs,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message with the given reply text.
func NewAssistantMessage(content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// HasImages reports whether the message carries attachments.
func (m *Message) HasImages() bool {
	return len(m.Images) > 0
}

// IsUser returns true if this is a user message.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// FormatTimestamp returns the message time as HH:MM.
func (m *Message) FormatTimestamp() string {
	return m.Timestamp.Format("15:04")
}

func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
