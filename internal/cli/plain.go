// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/kantah-chat/internal/attachment"
	"github.com/jeranaias/kantah-chat/internal/chat"
	"github.com/jeranaias/kantah-chat/internal/config"
	"github.com/jeranaias/kantah-chat/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of user input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for the plain chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads saved input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line with arrow-key history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// PLAIN CHAT LOOP
// =============================================================================

func (a *App) runPlainChat(ctx context.Context, session *chat.Session, siteName string) error {
	input := NewChatCLI()
	defer input.Close()
	return plainChatLoop(ctx, a.Out, input, session, siteName)
}

// plainChatLoop runs the line-based chat until EOF, Ctrl+C or /quit.
func plainChatLoop(ctx context.Context, out io.Writer, input LineReader, session *chat.Session, siteName string) error {
	fmt.Fprintln(out, TitleStyle.Render("Asisten Virtual "+siteName))
	printQuickActions(out, session)

	var pending []model.ImageData
	for {
		line, err := input.ReadInput(PromptStyle.Render("anda> "))
		if err != nil {
			// EOF, Ctrl+D and Ctrl+C all end the chat.
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "/") {
			var quit bool
			pending, quit = plainCommand(out, line, session, pending)
			if quit {
				return nil
			}
			continue
		}

		if line == "" && len(pending) == 0 {
			continue
		}

		// A bare number on an empty chat picks a quick action.
		if n, err := strconv.Atoi(line); err == nil && session.IsEmpty() && len(pending) == 0 &&
			n >= 1 && n <= len(session.QuickActions()) {
			line = session.QuickActions()[n-1].Question
			fmt.Fprintln(out, MutedStyle.Render(line))
		}

		reply, err := session.Send(ctx, line, pending)
		pending = nil
		if err != nil {
			fmt.Fprintln(out, ErrorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, WrapText(reply.Content, 0))
		fmt.Fprintln(out)
	}
}

// plainCommand handles a slash command and returns the updated attachment
// queue and whether the chat should end.
func plainCommand(out io.Writer, line string, session *chat.Session, pending []model.ImageData) ([]model.ImageData, bool) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return pending, true
	case "/new":
		session.NewChat()
		fmt.Fprintln(out, SuccessStyle.Render("Chat baru dimulai"))
		printQuickActions(out, session)
		return nil, false
	case "/attach":
		if arg == "" {
			fmt.Fprintln(out, WarningStyle.Render("Gunakan: /attach <path>"))
			return pending, false
		}
		img, err := attachment.Load(arg)
		if err != nil {
			fmt.Fprintln(out, ErrorStyle.Render(err.Error()))
			return pending, false
		}
		pending = append(pending, img)
		fmt.Fprintf(out, "%s (%d lampiran)\n", SuccessStyle.Render("Terlampir: "+filepath.Base(arg)), len(pending))
		return pending, false
	case "/history":
		for i, item := range session.History() {
			fmt.Fprintf(out, "%2d. %s %s\n", i+1, MutedStyle.Render(item.Timestamp.Format("15:04")), item.Summary)
		}
		return pending, false
	default:
		fmt.Fprintln(out, WarningStyle.Render("Perintah tidak dikenal: "+name))
		return pending, false
	}
}

func printQuickActions(out io.Writer, session *chat.Session) {
	actions := session.QuickActions()
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(out, "Pertanyaan cepat:")
	for i, qa := range actions {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, qa.Title)
	}
	fmt.Fprintln(out, MutedStyle.Render("Ketik nomor, pertanyaan, /attach <file>, /new atau /quit."))
}
