// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the chat view.
func (m Model) View() string {
	if m.width == 0 {
		return "Memuat..."
	}

	parts := []string{m.renderHeader(), m.renderBody()}
	if len(m.pending) > 0 {
		parts = append(parts, m.renderPending())
	}
	parts = append(parts, m.renderInput(), m.renderHint())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.siteName)
	subtitle := m.theme.HeaderSubtitle.Render("Asisten Virtual")
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

func (m Model) renderBody() string {
	if !m.theme.ShowSidebar() {
		return m.viewport.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.viewport.View())
}

func (m Model) renderPending() string {
	names := make([]string, len(m.pending))
	for i, p := range m.pending {
		names[i] = p.name
	}
	return m.theme.Attachment.Render("Lampiran: " + strings.Join(names, ", "))
}

func (m Model) renderInput() string {
	width := m.width - 2
	if m.sending {
		return m.theme.InputContainer.Width(width).Render(m.spinner.View() + " Menunggu jawaban...")
	}
	return m.theme.InputContainer.Width(width).Render(m.input.View())
}

func (m Model) renderHint() string {
	if m.status != "" {
		if m.isError {
			return m.theme.Error.Render(m.status)
		}
		return m.theme.Status.Render(m.status)
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	hints = append(hints, "/attach <file>")
	if m.session.IsEmpty() && len(m.session.QuickActions()) > 0 {
		hints = append(hints, m.keys.QuickAction.Help().Key+" "+m.keys.QuickAction.Help().Desc)
	}
	return m.theme.Hint.Render(strings.Join(hints, " | "))
}
