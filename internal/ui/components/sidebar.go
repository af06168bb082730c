// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/kantah-chat/internal/model"
	"github.com/jeranaias/kantah-chat/internal/ui/styles"
	"github.com/jeranaias/kantah-chat/internal/util"
)

// HistorySidebar lists the questions asked in the current chat.
type HistorySidebar struct {
	Items   []model.HistoryItem
	Cursor  int
	Focused bool
	Height  int
	theme   *styles.Theme
}

// NewHistorySidebar creates an empty sidebar.
func NewHistorySidebar(theme *styles.Theme) *HistorySidebar {
	return &HistorySidebar{theme: theme, Cursor: -1}
}

// SetItems replaces the listed items and keeps the cursor in range.
func (s *HistorySidebar) SetItems(items []model.HistoryItem) {
	s.Items = items
	if len(items) == 0 {
		s.Cursor = -1
		return
	}
	if s.Cursor >= len(items) {
		s.Cursor = len(items) - 1
	}
}

// Move shifts the cursor by delta, clamped to the item list.
func (s *HistorySidebar) Move(delta int) {
	if len(s.Items) == 0 {
		return
	}
	if s.Cursor < 0 {
		s.Cursor = len(s.Items) - 1
		return
	}
	s.Cursor += delta
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor >= len(s.Items) {
		s.Cursor = len(s.Items) - 1
	}
}

// Selected returns the item under the cursor.
func (s *HistorySidebar) Selected() (model.HistoryItem, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Items) {
		return model.HistoryItem{}, false
	}
	return s.Items[s.Cursor], true
}

// View renders the sidebar, newest question first.
func (s *HistorySidebar) View() string {
	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Riwayat"))
	b.WriteString("\n")

	if len(s.Items) == 0 {
		b.WriteString(s.theme.Hint.Render("Belum ada pertanyaan"))
		return s.theme.Sidebar.Height(s.Height).Render(b.String())
	}

	textWidth := styles.SidebarWidth - 4
	for i := len(s.Items) - 1; i >= 0; i-- {
		item := s.Items[i]
		line := item.Timestamp.Format("15:04") + " " + util.TruncateWidth(item.Summary, textWidth-6)
		style := s.theme.SidebarItem
		if s.Focused && i == s.Cursor {
			style = s.theme.SidebarFocus
			line = "> " + util.TruncateWidth(line, textWidth-2)
		}
		b.WriteString("\n")
		b.WriteString(style.Render(line))
	}
	return s.theme.Sidebar.Height(s.Height).Render(b.String())
}
