// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/kantah-chat/internal/knowledge"
	"github.com/jeranaias/kantah-chat/internal/logging"
	"github.com/jeranaias/kantah-chat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kantah configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Assistant AssistantConfig `toml:"assistant" yaml:"assistant"`
	Model     ModelConfig     `toml:"model" yaml:"model"`
	Client    ClientConfig    `toml:"client" yaml:"client"`
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr" yaml:"addr"`
	// CORSOrigins lists the origins allowed to embed the widget.
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	// AuthToken enables bearer authentication when non-empty.
	AuthToken string `toml:"auth_token" yaml:"auth_token"`
	// RateLimitPerMinute caps requests per client IP. 0 disables limiting.
	RateLimitPerMinute int `toml:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	// MaxBodyBytes caps the request body; images travel inline as base64.
	MaxBodyBytes int64 `toml:"max_body_bytes" yaml:"max_body_bytes"`
}

// AssistantConfig selects what the assistant knows and how it speaks.
type AssistantConfig struct {
	Site    string `toml:"site" yaml:"site"`
	Persona string `toml:"persona" yaml:"persona"`
	// KnowledgePath replaces the embedded knowledge document and is watched for edits.
	KnowledgePath string `toml:"knowledge_path" yaml:"knowledge_path"`
}

// ModelConfig contains the generative model settings.
type ModelConfig struct {
	Name        string `toml:"name" yaml:"name"`
	APIKey      string `toml:"api_key" yaml:"api_key"`
	TimeoutSecs int    `toml:"timeout_secs" yaml:"timeout_secs"`
}

// Timeout returns the per-call model timeout.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSecs) * time.Second
}

// ClientConfig is used by the chat and ask commands.
type ClientConfig struct {
	ServerURL string `toml:"server_url" yaml:"server_url"`
}

// StorageConfig controls the optional inquiry log.
type StorageConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// LogConfig controls zap output.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			CORSOrigins:        []string{"http://localhost:3000"},
			RateLimitPerMinute: 30,
			MaxBodyBytes:       20 * 1024 * 1024,
		},
		Assistant: AssistantConfig{
			Site:    "bpn-grobogan",
			Persona: "formal",
		},
		Model: ModelConfig{
			Name:        "gemini-2.5-flash",
			TimeoutSecs: 60,
		},
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
		},
		Storage: StorageConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the kantah configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kantah"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultStoragePath returns the inquiry log location inside the config directory.
func DefaultStoragePath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "inquiries.db"
	}
	return filepath.Join(dir, "inquiries.db")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default locations.
// Tries TOML first, then YAML, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathYAML} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file. The format is chosen
// by extension: .yaml/.yml for YAML, anything else for TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := LoadYAML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load YAML config from %s: %w", path, err)
		}
	default:
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file into cfg.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# kantah configuration file\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrMissingAPIKey is returned by RequireAPIKey when no model key is configured.
var ErrMissingAPIKey = errors.New("model.api_key is not set (export GEMINI_API_KEY)")

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "must not be empty"})
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit_per_minute", Message: "must be >= 0"})
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, ValidationError{Field: "server.max_body_bytes", Message: "must be > 0"})
	}

	if !slices.Contains(knowledge.SiteIDs(), c.Assistant.Site) {
		errs = append(errs, ValidationError{
			Field:   "assistant.site",
			Message: fmt.Sprintf("invalid site '%s', must be one of: %s", c.Assistant.Site, strings.Join(knowledge.SiteIDs(), ", ")),
		})
	}
	if !slices.Contains(knowledge.PersonaIDs(), c.Assistant.Persona) {
		errs = append(errs, ValidationError{
			Field:   "assistant.persona",
			Message: fmt.Sprintf("invalid persona '%s', must be one of: %s", c.Assistant.Persona, strings.Join(knowledge.PersonaIDs(), ", ")),
		})
	}

	if c.Model.Name == "" {
		errs = append(errs, ValidationError{Field: "model.name", Message: "must not be empty"})
	}
	if c.Model.TimeoutSecs <= 0 || c.Model.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{Field: "model.timeout_secs", Message: "must be between 1 and 600"})
	}

	if u, err := url.Parse(c.Client.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "client.server_url", Message: fmt.Sprintf("invalid URL '%s'", c.Client.ServerURL)})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		errs = append(errs, ValidationError{Field: "log.format", Message: "must be json or console"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RequireAPIKey reports whether the configuration can reach the model.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Model.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// SetDefaults fills any zero values left after decoding and env overrides.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
	if c.Assistant.Site == "" {
		c.Assistant.Site = d.Assistant.Site
	}
	if c.Assistant.Persona == "" {
		c.Assistant.Persona = d.Assistant.Persona
	}
	if c.Model.Name == "" {
		c.Model.Name = d.Model.Name
	}
	if c.Model.TimeoutSecs == 0 {
		c.Model.TimeoutSecs = d.Model.TimeoutSecs
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = d.Client.ServerURL
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath()
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEMINI_API_KEY: overrides model.api_key
//   - KANTAH_ADDR: overrides server.addr
//   - KANTAH_SITE: overrides assistant.site
//   - KANTAH_PERSONA: overrides assistant.persona
//   - KANTAH_KNOWLEDGE_PATH: overrides assistant.knowledge_path
//   - KANTAH_MODEL: overrides model.name
//   - KANTAH_AUTH_TOKEN: overrides server.auth_token
//   - KANTAH_RATE_LIMIT: overrides server.rate_limit_per_minute
//   - KANTAH_SERVER_URL: overrides client.server_url
//   - KANTAH_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Model.APIKey = key
	}
	if addr := os.Getenv("KANTAH_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if site := os.Getenv("KANTAH_SITE"); site != "" {
		c.Assistant.Site = site
	}
	if persona := os.Getenv("KANTAH_PERSONA"); persona != "" {
		c.Assistant.Persona = persona
	}
	if path := os.Getenv("KANTAH_KNOWLEDGE_PATH"); path != "" {
		c.Assistant.KnowledgePath = path
	}
	if model := os.Getenv("KANTAH_MODEL"); model != "" {
		c.Model.Name = model
	}
	if token := os.Getenv("KANTAH_AUTH_TOKEN"); token != "" {
		c.Server.AuthToken = token
	}
	if limit := os.Getenv("KANTAH_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			c.Server.RateLimitPerMinute = n
		}
	}
	if u := os.Getenv("KANTAH_SERVER_URL"); u != "" {
		c.Client.ServerURL = u
	}
	if level := os.Getenv("KANTAH_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.CORSOrigins = slices.Clone(c.Server.CORSOrigins)
	return &clone
}

// String renders the config as TOML with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Model.APIKey != "" {
		safe.Model.APIKey = "[REDACTED]"
	}
	if safe.Server.AuthToken != "" {
		safe.Server.AuthToken = "[REDACTED]"
	}

	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(safe); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}
