// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/kantah-chat/internal/api"
	"github.com/jeranaias/kantah-chat/internal/attachment"
	"github.com/jeranaias/kantah-chat/internal/model"
)

type askFlags struct {
	images []string
	json   bool
}

func (a *App) newAskCommand() *cobra.Command {
	var flags askFlags
	cmd := &cobra.Command{
		Use:   `ask ["question"]`,
		Short: "Ask one question and print the answer",
		Long: `Sends a single question to the server and prints the answer.

Examples:
  kantah ask "Apa jam operasional?"
  kantah ask --image sertifikat.jpg
  kantah ask "Ini dokumen apa?" --image surat.pdf --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.runAsk(ctx, strings.Join(args, " "), flags)
		},
	}
	cmd.Flags().StringArrayVarP(&flags.images, "image", "i", nil, "attach an image or PDF (repeatable)")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the raw response envelope")
	cmd.Flags().StringVar(&a.serverURL, "server", "", "server URL (overrides client.server_url)")
	return cmd
}

func (a *App) runAsk(ctx context.Context, question string, flags askFlags) error {
	question = strings.TrimSpace(question)

	images := make([]model.ImageData, 0, len(flags.images))
	for _, path := range flags.images {
		img, err := attachment.Load(path)
		if err != nil {
			return &CommandError{Command: "ask", Action: "attach", Reason: path, Err: err, Code: ExitUsageError}
		}
		images = append(images, img)
	}

	if question == "" && len(images) == 0 {
		return &CommandError{Command: "ask", Action: "validate", Reason: "a question or --image is required", Code: ExitUsageError}
	}

	client := a.apiClient()
	resp, err := client.Chat(ctx, api.ChatRequest{Message: question, Images: images})
	if err != nil {
		return NetworkError("ask", client.BaseURL(), err)
	}

	if flags.json {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	if !resp.Success {
		return &CommandError{
			Command: "ask",
			Action:  "request",
			Reason:  fmt.Sprintf("server answered %d: %s", resp.StatusCode, resp.Error),
		}
	}
	if !flags.json {
		fmt.Fprintln(a.Out, WrapText(resp.Message, 0))
	}
	return nil
}
