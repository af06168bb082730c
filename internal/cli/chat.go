// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/api"
	"github.com/jeranaias/kantah-chat/internal/chat"
	"github.com/jeranaias/kantah-chat/internal/knowledge"
	uichat "github.com/jeranaias/kantah-chat/internal/ui/chat"
	"github.com/jeranaias/kantah-chat/internal/ui/styles"
)

func (a *App) newChatCommand() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running kantah server",
		Long: `Opens an interactive chat with the server at client.server_url.

The full-screen view is used when stdin and stdout are terminals; --plain
(or a non-terminal) selects a line-based prompt.

Commands inside the chat:
  /attach <path>   attach an image or PDF to the next question
  /new             start a new chat
  /quit            exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.runChat(ctx, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use the line-based prompt instead of the full-screen view")
	cmd.Flags().StringVar(&a.serverURL, "server", "", "server URL (overrides client.server_url)")
	return cmd
}

func (a *App) runChat(ctx context.Context, plain bool) error {
	client := a.apiClient()
	tui := !plain && CanRunTUI()

	// Log lines would tear through the full-screen view.
	logger := a.logger
	if tui && !a.verbose {
		logger = zap.NewNop()
		client.WithLogger(logger)
	}

	session := chat.NewSession(client).WithLogger(logger)
	siteName, actions := a.loadQuickActions(ctx, client)
	session.SetQuickActions(actions)

	if !tui {
		return a.runPlainChat(ctx, session, siteName)
	}

	m := uichat.New(styles.NewTheme(), session, siteName)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// loadQuickActions asks the server for its quick actions, falling back to
// the local catalogue for the configured site when the server is unreachable.
func (a *App) loadQuickActions(ctx context.Context, client *api.Client) (string, []knowledge.QuickAction) {
	qa, err := client.QuickActions(ctx)
	if err == nil {
		return qa.SiteName, qa.QuickActions
	}
	a.logger.Debug("quick actions unavailable, using local catalogue", zap.Error(err))

	site, lerr := knowledge.LookupSite(a.cfg.Assistant.Site)
	if lerr != nil {
		return "", nil
	}
	return site.Name, site.QuickActions
}
