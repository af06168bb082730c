// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/api"
	"github.com/jeranaias/kantah-chat/internal/config"
	"github.com/jeranaias/kantah-chat/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App holds the state shared by every command.
type App struct {
	Out io.Writer
	Err io.Writer

	configPath string
	verbose    bool
	serverURL  string

	cfg    *config.Config
	logger *zap.Logger
}

// NewApp creates an App writing to the process's stdout and stderr.
func NewApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	app := NewApp()
	root := app.NewRootCommand()
	if err := root.Execute(); err != nil {
		PrintError(app.Err, err)
		return ExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the command tree.
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kantah",
		Short: "Virtual customer-service assistant for public offices",
		Long: `kantah answers visitor questions for a public office using a fixed
knowledge document and a hosted Gemini model.

Run "kantah serve" on the backend and "kantah chat" to talk to it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.kantah/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newServeCommand(),
		a.newChatCommand(),
		a.newAskCommand(),
		a.newConfigCommand(),
		a.newInquiriesCommand(),
		a.newVersionCommand(),
	)
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return &CommandError{Command: cmd.Name(), Action: "load config", Reason: "configuration is invalid", Err: err, Code: ExitConfigError}
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return &CommandError{Command: cmd.Name(), Action: "init logging", Reason: "bad log settings", Err: err, Code: ExitConfigError}
	}
	a.logger = logger
	return nil
}

// apiClient returns a client for the configured chat server.
func (a *App) apiClient() *api.Client {
	url := a.cfg.Client.ServerURL
	if a.serverURL != "" {
		url = a.serverURL
	}
	return api.NewClient(url).
		WithAuthToken(a.cfg.Server.AuthToken).
		WithLogger(a.logger)
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No config needed to print the version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.Out, "kantah %s\n", Version)
			fmt.Fprintf(a.Out, "  commit:  %s\n", GitCommit)
			fmt.Fprintf(a.Out, "  built:   %s\n", BuildDate)
			fmt.Fprintf(a.Out, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
