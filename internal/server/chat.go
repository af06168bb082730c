// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/model"
	"github.com/jeranaias/kantah-chat/internal/prompt"
	"github.com/jeranaias/kantah-chat/internal/storage"
)

// Public error messages. Internal details are only logged.
const (
	msgInvalidRequest   = "Invalid request format"
	msgBodyTooLarge     = "Request body too large"
	msgMissingInput     = "Message or images are required"
	msgBadAttachment    = "Unsupported attachment"
	msgTooManyImages    = "Too many attachments"
	msgGenerationFailed = "Failed to generate response"
)

// MaxImages is the most attachments accepted in one request.
const MaxImages = 10

// recordTimeout bounds the inquiry log write after a response.
const recordTimeout = 2 * time.Second

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string            `json:"message,omitempty"`
	Images  []model.ImageData `json:"images,omitempty"`
}

// ChatResponse is the success envelope of POST /api/chat.
type ChatResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// QuickActionsResponse is the body of GET /api/quick-actions.
type QuickActionsResponse struct {
	Site         string                  `json:"site"`
	SiteName     string                  `json:"siteName"`
	QuickActions []knowledge.QuickAction `json:"quickActions"`
}

// IsAllowedMimeType reports whether an attachment type can be forwarded to
// the model: any image, or PDF.
func IsAllowedMimeType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return (strings.HasPrefix(mt, "image/") && len(mt) > len("image/")) || mt == "application/pdf"
}

func validateImages(images []model.ImageData) string {
	if len(images) > MaxImages {
		return msgTooManyImages
	}
	for _, img := range images {
		if img.Data == "" || !IsAllowedMimeType(img.MimeType) {
			return msgBadAttachment
		}
	}
	return ""
}

// handleChat answers one visitor question.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := s.log()

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("chat request too large", zap.Int64("limit", maxErr.Limit))
			s.finish(r, start, http.StatusRequestEntityTooLarge, "", 0)
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		logger.Debug("invalid chat request body", zap.Error(err))
		s.finish(r, start, http.StatusBadRequest, "", 0)
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	// Only an absent message counts as missing; whitespace is still a question.
	if req.Message == "" && len(req.Images) == 0 {
		s.finish(r, start, http.StatusBadRequest, "", 0)
		writeError(w, http.StatusBadRequest, msgMissingInput)
		return
	}

	message := prompt.NormalizeMessage(req.Message)

	if reason := validateImages(req.Images); reason != "" {
		logger.Debug("chat attachment rejected",
			zap.Int("images", len(req.Images)),
			zap.String("reason", reason))
		s.finish(r, start, http.StatusBadRequest, message, len(req.Images))
		writeError(w, http.StatusBadRequest, reason)
		return
	}

	p := s.assembler.Build(s.knowledge.Text(), message, req.Images)

	reply, err := s.generator.Generate(r.Context(), p)
	if err != nil {
		logger.Error("generate failed",
			zap.Error(err),
			zap.Int("images", len(req.Images)),
			zap.Duration("duration", time.Since(start)))
		s.finish(r, start, http.StatusInternalServerError, message, len(req.Images))
		writeError(w, http.StatusInternalServerError, msgGenerationFailed)
		return
	}

	s.finish(r, start, http.StatusOK, message, len(req.Images))
	writeJSON(w, http.StatusOK, ChatResponse{
		Message: prompt.CleanResponse(reply),
		Success: true,
	})
}

// finish counts the request and, when enabled, records it in the inquiry log.
func (s *Server) finish(r *http.Request, start time.Time, status int, message string, images int) {
	s.stats.RecordStatus(status)

	s.mu.RLock()
	rec := s.recorder
	logger := s.logger
	s.mu.RUnlock()
	if rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), recordTimeout)
	defer cancel()

	err := rec.Record(ctx, storage.Inquiry{
		CreatedAt:  start,
		Site:       s.assembler.Site().ID,
		Persona:    s.assembler.Persona().ID,
		MessageLen: utf8.RuneCountInString(message),
		ImageCount: images,
		Status:     status,
		Latency:    time.Since(start),
	})
	if err != nil {
		logger.Warn("failed to record inquiry", zap.Error(err))
	}
}

func (s *Server) handleQuickActions(w http.ResponseWriter, r *http.Request) {
	site := s.assembler.Site()
	writeJSON(w, http.StatusOK, QuickActionsResponse{
		Site:         site.ID,
		SiteName:     site.Name,
		QuickActions: site.QuickActions,
	})
}
