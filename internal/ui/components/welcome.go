// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/ui/styles"
)

// MaxQuickActions is how many quick actions get a number key.
const MaxQuickActions = 4

// Welcome is the empty-chat screen with the site's quick actions.
type Welcome struct {
	SiteName     string
	QuickActions []knowledge.QuickAction
	Width        int
	theme        *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) *Welcome {
	return &Welcome{Width: 80, theme: theme}
}

// View renders the greeting and the numbered quick actions.
func (w *Welcome) View() string {
	name := w.SiteName
	if name == "" {
		name = "layanan kami"
	}

	var b strings.Builder
	b.WriteString(w.theme.HeaderTitle.Render("Selamat datang di " + name))
	b.WriteString("\n")
	b.WriteString(w.theme.HeaderSubtitle.Render("Tanyakan apa saja, atau kirim foto/dokumen dengan /attach <file>."))
	b.WriteString("\n")

	for i, qa := range w.QuickActions {
		if i >= MaxQuickActions {
			break
		}
		b.WriteString("\n")
		b.WriteString(w.theme.QuickActionTitle.Render(fmt.Sprintf("[%d] %s", i+1, qa.Title)))
		if qa.Description != "" {
			b.WriteString("\n    ")
			b.WriteString(w.theme.QuickActionDesc.Render(qa.Description))
		}
	}

	return lipgloss.NewStyle().Width(w.Width).Padding(1, 2).Render(b.String())
}
