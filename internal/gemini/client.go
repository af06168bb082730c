// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jeranaias/kantah-chat/internal/prompt"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash"

	// DefaultTimeout bounds a single generate call.
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrNotConfigured is returned when no API key was supplied.
	ErrNotConfigured = errors.New("gemini API key not configured")

	// ErrInvalidImage is returned when an attachment is not valid base64.
	ErrInvalidImage = errors.New("invalid image data")
)

// Generator produces a reply for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, p prompt.Prompt) (string, error)
}

// Options configures a Client.
type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string

	Logger *zap.Logger
}

// Client is a Generator backed by the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	keyFP   string
	logger  *zap.Logger
}

// NewClient creates a Gemini client. The underlying SDK client is created once
// and reused for every call.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{
		genai:   client,
		model:   opts.Model,
		timeout: opts.Timeout,
		keyFP:   fingerprint(opts.APIKey),
		logger:  opts.Logger,
	}, nil
}

// Model returns the model id requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// KeyFingerprint identifies the configured key in logs without exposing it.
func (c *Client) KeyFingerprint() string {
	return c.keyFP
}

// Generate sends one user-role request with the attachments as inline parts
// followed by the prompt text, and returns the model's text. An empty model
// answer is returned as "" without error.
func (c *Client) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	contents, err := buildContents(p)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		c.logger.Debug("generate failed",
			zap.String("model", c.model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	c.logger.Debug("generate completed",
		zap.String("model", c.model),
		zap.Int("images", len(p.Images)),
		zap.Int("reply_len", len(text)),
		zap.Duration("duration", time.Since(start)))
	return text, nil
}

func buildContents(p prompt.Prompt) ([]*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(p.Images)+1)
	for i, img := range p.Images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: attachment %d: %v", ErrInvalidImage, i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(p.Text))

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

func fingerprint(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}
