// Package config loads the top-level promptveil configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/promptveil/promptveil/internal/backend"
)

// Backend configures the redaction service client.
type Backend struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Consent configures text-only cycle policy.
type Consent struct {
	// TextOnly opens the consent surface even when a cycle carries no
	// binary payload.
	TextOnly bool `yaml:"text_only"`

	// TextOnlyDefault is "original" or "redacted"; applied when the
	// surface is bypassed for text-only cycles.
	TextOnlyDefault string `yaml:"text_only_default"`
}

// Browser configures the live attachment target.
type Browser struct {
	// URL is the chat page to attach to. Empty means attach to the
	// first page already matching Match.
	URL string `yaml:"url"`

	// Match is a substring selecting an already-open page.
	Match string `yaml:"match"`

	// ControlURL is an existing DevTools endpoint; empty launches a
	// managed browser.
	ControlURL string `yaml:"control_url"`
}

// Config holds all configurable promptveil parameters.
type Config struct {
	Backend   Backend            `yaml:"backend"`
	Consent   Consent            `yaml:"consent"`
	Browser   Browser            `yaml:"browser"`
	OCR       backend.OCROptions `yaml:"ocr"`
	Selectors string             `yaml:"selectors"`
	Captures  string             `yaml:"captures"`
	LogLevel  string             `yaml:"log_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: Backend{
			URL:     backend.DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Consent: Consent{
			TextOnly:        true,
			TextOnlyDefault: "original",
		},
		Browser: Browser{
			Match: "chatgpt.com",
		},
		OCR:      backend.DefaultOCROptions(),
		LogLevel: "info",
	}
}

// DefaultPath returns ~/.promptveil/config.yaml, or "" when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".promptveil", "config.yaml")
}

// Load loads configuration from a YAML file. Empty path falls back to
// ~/.promptveil/config.yaml. Missing file returns defaults. Invalid
// YAML returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
