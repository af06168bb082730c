// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/kantah-chat/internal/config"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

type inquiriesFlags struct {
	limit int
	json  bool
}

func (a *App) newInquiriesCommand() *cobra.Command {
	var flags inquiriesFlags
	cmd := &cobra.Command{
		Use:   "inquiries",
		Short: "Summarise the inquiry log written by the server",
		Long: `Prints aggregate counts and the most recent entries of the inquiry log.

The log holds request metadata only (time, site, persona, sizes, status,
latency); question text is never stored. Enable it with storage.enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.runInquiries(ctx, flags)
		},
	}
	cmd.Flags().IntVarP(&flags.limit, "limit", "n", 10, "number of recent entries to list")
	cmd.Flags().BoolVar(&flags.json, "json", false, "print JSON")
	return cmd
}

func (a *App) inquiryLogPath() string {
	if a.cfg.Storage.Path != "" {
		return a.cfg.Storage.Path
	}
	return config.DefaultStoragePath()
}

func (a *App) runInquiries(ctx context.Context, flags inquiriesFlags) error {
	path := a.inquiryLogPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &CommandError{Command: "inquiries", Action: "open", Reason: "no inquiry log at " + path, Code: ExitConfigError}
	}

	log, err := storage.Open(path)
	if err != nil {
		return &CommandError{Command: "inquiries", Action: "open", Reason: path, Err: err}
	}
	defer log.Close()

	stats, err := log.Stats(ctx)
	if err != nil {
		return err
	}
	recent, err := log.Recent(ctx, flags.limit)
	if err != nil {
		return err
	}

	if flags.json {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Stats  storage.Stats     `json:"stats"`
			Recent []storage.Inquiry `json:"recent"`
		}{stats, recent})
	}

	fmt.Fprintln(a.Out, TitleStyle.Render("Inquiry log"))
	fmt.Fprintln(a.Out, kv("Path", path))
	fmt.Fprintln(a.Out, kv("Succeeded", fmt.Sprintf("%d of %d", stats.Succeeded(), stats.Total)))
	fmt.Fprintln(a.Out)
	fmt.Fprint(a.Out, stats.String())

	if len(recent) > 0 {
		fmt.Fprintln(a.Out)
		for _, inq := range recent {
			fmt.Fprintf(a.Out, "%s  %-15s %-7s %3d  %5d chars  %d files  %s\n",
				inq.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				inq.Site, inq.Persona, inq.Status,
				inq.MessageLen, inq.ImageCount,
				inq.Latency.Round(time.Millisecond))
		}
	}
	return nil
}
