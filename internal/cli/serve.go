// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/config"
	"github.com/jeranaias/kantah-chat/internal/gemini"
	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/prompt"
	"github.com/jeranaias/kantah-chat/internal/server"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
const ShutdownTimeout = 15 * time.Second

type serveFlags struct {
	addr    string
	site    string
	persona string
}

func (a *App) newServeCommand() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		Long: `Starts the HTTP server that answers POST /api/chat.

Requires a Gemini API key (model.api_key or GEMINI_API_KEY).

Example:
  GEMINI_API_KEY=... kantah serve --site polsek-rembang --persona casual`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeFlags(cmd, a.cfg, flags)
			return a.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&flags.site, "site", "", "site id (overrides assistant.site)")
	cmd.Flags().StringVar(&flags.persona, "persona", "", "persona id (overrides assistant.persona)")
	return cmd
}

// applyServeFlags copies explicitly set flags over the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, flags serveFlags) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = flags.addr
	}
	if cmd.Flags().Changed("site") {
		cfg.Assistant.Site = flags.site
	}
	if cmd.Flags().Changed("persona") {
		cfg.Assistant.Persona = flags.persona
	}
}

func (a *App) runServe(parent context.Context) error {
	cfg := a.cfg
	logger := a.logger

	if err := cfg.RequireAPIKey(); err != nil {
		return &CommandError{Command: "serve", Action: "start", Reason: "no model API key", Err: err, Code: ExitConfigError}
	}
	if err := cfg.Validate(); err != nil {
		return &CommandError{Command: "serve", Action: "start", Reason: "invalid settings", Err: err, Code: ExitConfigError}
	}

	site, err := knowledge.LookupSite(cfg.Assistant.Site)
	if err != nil {
		return err
	}
	persona, err := knowledge.LookupPersona(cfg.Assistant.Persona)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := knowledge.NewStore(site, cfg.Assistant.KnowledgePath, logger)
	if err != nil {
		return &CommandError{Command: "serve", Action: "load knowledge", Reason: "cannot read knowledge document", Err: err, Code: ExitConfigError}
	}
	defer store.Close()
	if err := store.Watch(ctx); err != nil {
		logger.Warn("knowledge hot reload disabled", zap.Error(err))
	}

	gen, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	logger.Info("model client ready",
		zap.String("model", gen.Model()),
		zap.String("key", gen.KeyFingerprint()))

	srv := server.New(server.Options{
		Addr:               cfg.Server.Addr,
		CORSOrigins:        cfg.Server.CORSOrigins,
		AuthToken:          cfg.Server.AuthToken,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		Version:            Version,
		ModelName:          gen.Model(),
	}, gen, prompt.NewAssembler(persona, site), store).WithLogger(logger)

	if cfg.Storage.Enabled {
		inquiries, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return &CommandError{Command: "serve", Action: "open inquiry log", Reason: cfg.Storage.Path, Err: err}
		}
		defer inquiries.Close()
		srv.WithRecorder(inquiries)
		logger.Info("inquiry log enabled", zap.String("path", inquiries.Path()))
	}

	return serveUntilDone(ctx, srv, logger)
}

// serveUntilDone runs srv until it fails or ctx is cancelled, then shuts it down.
func serveUntilDone(ctx context.Context, srv *server.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
