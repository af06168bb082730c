// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/kantah-chat/internal/config"
)

func (a *App) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(a.Out, a.cfg.String())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.defaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.Out, p)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigInit(force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, path, initCmd)
	return cmd
}

func (a *App) defaultConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPathTOML()
}

func (a *App) runConfigInit(force bool) error {
	p, err := a.defaultConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil && !force {
		return &CommandError{Command: "config", Action: "init", Reason: p + " already exists (use --force)", Code: ExitUsageError}
	}
	if err := config.SaveTOML(config.Default(), p); err != nil {
		return &CommandError{Command: "config", Action: "init", Reason: "cannot write " + p, Err: err, Code: ExitConfigError}
	}
	fmt.Fprintln(a.Out, SuccessStyle.Render("Wrote "+p))
	return nil
}
