// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/kantah-chat/internal/util"
)

// SummaryWidth is the maximum display width of a history summary.
const SummaryWidth = 60

// HistoryItem indexes a user message for scroll-to-message navigation.
// ID is always the ID of the user message it summarises.
type HistoryItem struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryItem derives the history entry for a user message.
func NewHistoryItem(msg *Message) HistoryItem {
	return HistoryItem{
		ID:        msg.ID,
		Summary:   Summarize(msg.Content, len(msg.Images)),
		Timestamp: msg.Timestamp,
	}
}

// Summarize produces the one-line question summary shown in the sidebar.
// An attachment-only question is summarised by its attachment count.
func Summarize(content string, imageCount int) string {
	text := util.SingleLine(strings.TrimSpace(content))
	if text == "" {
		if imageCount > 0 {
			return fmt.Sprintf("[%d gambar/dokumen]", imageCount)
		}
		return ""
	}
	return util.TruncateWidth(text, SummaryWidth)
}
