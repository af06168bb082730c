// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/kantah-chat/internal/chat"
	"github.com/jeranaias/kantah-chat/internal/model"
	"github.com/jeranaias/kantah-chat/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one message with its role label and time.
type MessageBubble struct {
	Message *model.Message
	Width   int
	theme   *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{Message: msg, Width: 80, theme: theme}
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	if b.Message == nil {
		return ""
	}

	content := b.Message.Content
	maxContentWidth := b.Width - 10 // margins, padding and border
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	header := b.theme.RoleLabel.Render(b.Message.Role.DisplayName()) + " " +
		b.theme.Timestamp.Render(b.Message.FormatTimestamp())

	var parts []string
	parts = append(parts, header)

	if b.Message.HasImages() {
		parts = append(parts, b.theme.Attachment.Render(attachmentLabel(b.Message.Images)))
	}

	if content != "" {
		wrapped := wordWrap(content, maxContentWidth)
		style := b.bubbleStyle()
		parts = append(parts, style.Render(wrapped))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) bubbleStyle() lipgloss.Style {
	if b.Message.IsAssistant() && IsFailureReply(b.Message.Content) {
		return b.theme.ErrorBubble
	}
	if b.Message.IsUser() {
		return b.theme.UserBubble
	}
	return b.theme.AssistantBubble
}

// IsFailureReply reports whether content is one of the apology replies
// appended when a request fails.
func IsFailureReply(content string) bool {
	return content == chat.ErrorReply || content == chat.ConnectionErrorReply
}

func attachmentLabel(images []model.ImageData) string {
	kinds := make([]string, 0, len(images))
	for _, img := range images {
		if img.MimeType == "application/pdf" {
			kinds = append(kinds, "PDF")
		} else {
			kinds = append(kinds, strings.TrimPrefix(img.MimeType, "image/"))
		}
	}
	return fmt.Sprintf("[%d lampiran: %s]", len(images), strings.Join(kinds, ", "))
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders a conversation and remembers where each message
// starts so the view can scroll to it.
type MessageList struct {
	Messages []*model.Message
	Width    int
	theme    *styles.Theme

	offsets map[string]int
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:   80,
		theme:   theme,
		offsets: make(map[string]int),
	}
}

// SetMessages sets the messages to display.
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders all messages separated by a blank line.
func (ml *MessageList) View() string {
	ml.offsets = make(map[string]int, len(ml.Messages))

	var b strings.Builder
	line := 0
	for i, msg := range ml.Messages {
		if i > 0 {
			b.WriteString("\n\n")
			line += 2
		}
		ml.offsets[msg.ID] = line

		bubble := NewMessageBubble(msg, ml.theme)
		bubble.Width = ml.Width
		rendered := bubble.View()
		b.WriteString(rendered)
		line += lipgloss.Height(rendered) - 1
	}
	return b.String()
}

// LineOffset returns the first line of the message with the given ID in the
// last rendered View.
func (ml *MessageList) LineOffset(id string) (int, bool) {
	off, ok := ml.offsets[id]
	return off, ok
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// wordWrap wraps text to fit within width display columns, keeping the
// original line breaks.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width {
				current += " " + word
			} else {
				result.WriteString(current)
				result.WriteString("\n")
				current = word
			}
		}
		result.WriteString(current)
	}
	return result.String()
}
