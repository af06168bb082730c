// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// SidebarWidth is the history sidebar width in wide layouts.
const SidebarWidth = 32

// Theme holds every style the chat view renders with.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	Attachment      lipgloss.Style

	Sidebar      lipgloss.Style
	SidebarTitle lipgloss.Style
	SidebarItem  lipgloss.Style
	SidebarFocus lipgloss.Style

	QuickActionTitle lipgloss.Style
	QuickActionDesc  lipgloss.Style

	InputContainer lipgloss.Style
	Status         lipgloss.Style
	Hint           lipgloss.Style
	Error          lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Green)
	t.HeaderSubtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Green).
		Padding(0, 1).
		MarginLeft(4)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1).
		MarginRight(4)
	t.ErrorBubble = t.AssistantBubble.BorderForeground(Rose).Foreground(Rose)
	t.RoleLabel = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Attachment = lipgloss.NewStyle().Foreground(Gold).Italic(true)

	t.Sidebar = lipgloss.NewStyle().
		Width(SidebarWidth).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SidebarFocus = lipgloss.NewStyle().Bold(true).Foreground(Gold)

	t.QuickActionTitle = lipgloss.NewStyle().Bold(true).Foreground(Gold)
	t.QuickActionDesc = lipgloss.NewStyle().Foreground(TextSecondary)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Green).
		Padding(0, 1)
	t.Status = lipgloss.NewStyle().Foreground(TextMuted)
	t.Hint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Error = lipgloss.NewStyle().Foreground(Rose)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ShowSidebar reports whether the layout is wide enough for the history sidebar.
func (t *Theme) ShowSidebar() bool {
	return t.Width >= 90
}

// ContentWidth returns the width left for the message list.
func (t *Theme) ContentWidth() int {
	w := t.Width
	if t.ShowSidebar() {
		w -= SidebarWidth + 3 // border and padding
	}
	if w < 20 {
		w = 20
	}
	return w
}
