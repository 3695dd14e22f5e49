package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/promptveil/promptveil/internal/backend"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend.URL != backend.DefaultBaseURL {
		t.Fatalf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Fatalf("Backend.Timeout = %v", cfg.Backend.Timeout)
	}
	if !cfg.Consent.TextOnly {
		t.Fatal("text-only consent should default on")
	}
	if cfg.Consent.TextOnlyDefault != "original" {
		t.Fatalf("TextOnlyDefault = %q", cfg.Consent.TextOnlyDefault)
	}
	if cfg.Browser.Match != "chatgpt.com" {
		t.Fatalf("Browser.Match = %q", cfg.Browser.Match)
	}
	if cfg.OCR.Langs != "eng+kor" {
		t.Fatalf("OCR.Langs = %q", cfg.OCR.Langs)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != backend.DefaultBaseURL {
		t.Fatalf("Backend.URL = %q", cfg.Backend.URL)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend:
  url: http://127.0.0.1:9999
consent:
  text_only: false
  text_only_default: redacted
browser:
  control_url: ws://127.0.0.1:9222/devtools
ocr:
  langs: eng
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "http://127.0.0.1:9999" {
		t.Fatalf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Fatalf("unspecified timeout should keep the default, got %v", cfg.Backend.Timeout)
	}
	if cfg.Consent.TextOnly {
		t.Fatal("text_only override not applied")
	}
	if cfg.Consent.TextOnlyDefault != "redacted" {
		t.Fatalf("TextOnlyDefault = %q", cfg.Consent.TextOnlyDefault)
	}
	if cfg.Browser.ControlURL != "ws://127.0.0.1:9222/devtools" {
		t.Fatalf("ControlURL = %q", cfg.Browser.ControlURL)
	}
	if cfg.OCR.Langs != "eng" {
		t.Fatalf("OCR.Langs = %q", cfg.OCR.Langs)
	}
	if cfg.OCR.MaxSide != 1200 {
		t.Fatalf("unspecified OCR field should keep its default, got %d", cfg.OCR.MaxSide)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid YAML should be an error")
	}
}
