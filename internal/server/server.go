// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/gemini"
	"github.com/jeranaias/kantah-chat/internal/prompt"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes bounds a chat request; images travel inline as base64.
	DefaultMaxBodyBytes = 20 * 1024 * 1024

	// DefaultRateLimitPerMinute is the per-IP request budget.
	DefaultRateLimitPerMinute = 30
)

// ============================================================================
// COLLABORATORS
// ============================================================================

// KnowledgeSource supplies the current knowledge document.
type KnowledgeSource interface {
	Text() string
}

// InquiryRecorder persists metadata about served chat requests.
type InquiryRecorder interface {
	Record(ctx context.Context, inq storage.Inquiry) error
}

// ============================================================================
// SERVER STATS
// ============================================================================

// ServerStats tracks chat request outcomes since start.
type ServerStats struct {
	total     atomic.Int64
	succeeded atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64
	startTime time.Time
}

// NewServerStats creates a new ServerStats instance.
func NewServerStats() *ServerStats {
	return &ServerStats{startTime: time.Now()}
}

// RecordStatus counts one chat request by the status it was answered with.
func (s *ServerStats) RecordStatus(status int) {
	s.total.Add(1)
	switch {
	case status >= 500:
		s.failed.Add(1)
	case status >= 400:
		s.rejected.Add(1)
	default:
		s.succeeded.Add(1)
	}
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Total         int64   `json:"total"`
	Succeeded     int64   `json:"succeeded"`
	Rejected      int64   `json:"rejected"`
	Failed        int64   `json:"failed"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Snapshot returns the current counters.
func (s *ServerStats) Snapshot() StatsResponse {
	uptime := time.Since(s.startTime)
	return StatsResponse{
		Total:         s.total.Load(),
		Succeeded:     s.succeeded.Load(),
		Rejected:      s.rejected.Load(),
		Failed:        s.failed.Load(),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Addr               string
	CORSOrigins        []string
	AuthToken          string
	RateLimitPerMinute int
	MaxBodyBytes       int64

	// Reported by /health.
	Version   string
	ModelName string
}

// Server is the chat assistant HTTP server.
type Server struct {
	opts   Options
	router *http.ServeMux
	server *http.Server

	generator gemini.Generator
	assembler *prompt.Assembler
	knowledge KnowledgeSource
	recorder  InquiryRecorder
	limiter   *RateLimiter
	stats     *ServerStats
	logger    *zap.Logger

	mu     sync.RWMutex
	closed bool // set by Shutdown; a later Start returns http.ErrServerClosed
}

// New creates a Server. Zero-valued options fall back to defaults.
func New(opts Options, gen gemini.Generator, asm *prompt.Assembler, kb KnowledgeSource) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		opts:      opts,
		router:    http.NewServeMux(),
		generator: gen,
		assembler: asm,
		knowledge: kb,
		limiter:   NewRateLimiter(opts.RateLimitPerMinute),
		stats:     NewServerStats(),
		logger:    zap.NewNop(),
	}

	s.setupRoutes()
	return s
}

// WithLogger sets the logger used for request and error logging.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithRecorder enables the inquiry log.
func (s *Server) WithRecorder(rec InquiryRecorder) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = rec
	return s
}

// Stats returns the server's counters.
func (s *Server) Stats() *ServerStats {
	return s.stats
}

func (s *Server) log() *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /api/quick-actions", s.handleQuickActions)

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	logger := s.log()
	return Chain(
		RecoveryMiddleware(logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(DefaultCORSConfig(s.opts.CORSOrigins)),
		RateLimitMiddleware(s.limiter, logger),
		AuthMiddleware(s.opts.AuthToken, logger),
	)(s.router)
}

// ============================================================================
// AMBIENT HANDLERS
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Site    string `json:"site"`
	Persona string `json:"persona"`
	Model   string `json:"model"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.opts.Version,
		Site:    s.assembler.Site().ID,
		Persona: s.assembler.Persona().ID,
		Model:   s.opts.ModelName,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and blocks until the server stops.
// After Shutdown it returns http.ErrServerClosed, including when Shutdown
// ran before Start.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	logger := s.logger
	s.mu.Unlock()

	logger.Info("server starting",
		zap.String("addr", s.opts.Addr),
		zap.String("version", s.opts.Version),
		zap.String("site", s.assembler.Site().ID),
		zap.String("persona", s.assembler.Persona().ID),
		zap.String("model", s.opts.ModelName))
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	logger := s.logger
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	snap := s.stats.Snapshot()
	logger.Info("server shutting down",
		zap.Int64("total", snap.Total),
		zap.Int64("failed", snap.Failed))
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Success: false})
}
